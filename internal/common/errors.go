// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки реестра баллов
var (
	// ErrInvalidAmount — некорректное количество баллов (ноль или отрицательное)
	ErrInvalidAmount = errors.New("количество баллов должно быть положительным")
	// ErrInvalidLimit — некорректный дневной лимит
	ErrInvalidLimit = errors.New("дневной лимит должен быть больше нуля")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки таксономии ценностей и каталога наград
var (
	// ErrValueExists — такая ценность уже есть в списке
	ErrValueExists = errors.New("такая ценность уже добавлена")
	// ErrValueUnknown — ценности нет в списке
	ErrValueUnknown = errors.New("такой ценности нет в списке")
	// ErrValueEmpty — пустой тег ценности
	ErrValueEmpty = errors.New("тег ценности не может быть пустым")
	// ErrRewardUnknown — награды нет в каталоге
	ErrRewardUnknown = errors.New("такой награды нет в каталоге")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
	// ErrRoleTooLong — роль длиннее 64 символов
	ErrRoleTooLong = errors.New("роль слишком длинная (максимум 64 символа)")
)
