// Package recognition — resolver.go определяет границу с внешним
// сервисом членства в группах.
package recognition

import "context"

// GroupResolver разворачивает групповой токен в список ID пользователей.
// Реализация инжектируется снаружи: парсер ничего не знает о транспорте.
// Неудача разрешения — это пустой список на стороне вызывающего,
// а не ошибка разбора всего сообщения.
type GroupResolver interface {
	ResolveGroupMembers(ctx context.Context, groupToken string) ([]string, error)
}

// ResolverFunc адаптирует функцию под интерфейс GroupResolver.
type ResolverFunc func(ctx context.Context, groupToken string) ([]string, error)

// ResolveGroupMembers вызывает функцию.
func (f ResolverFunc) ResolveGroupMembers(ctx context.Context, groupToken string) ([]string, error) {
	return f(ctx, groupToken)
}
