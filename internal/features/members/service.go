// Package members — service.go содержит бизнес-логику управления участниками.
// Сервис координирует регистрацию, проверку членства, разрешение
// @username → ID и разворачивание ролей в списки участников.
package members

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
)

// Service управляет участниками чата.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// HandleNewMember обрабатывает вступление нового пользователя в чат.
// Если пользователь уже есть в базе (перезашёл) — обновляет его данные.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	existing, _ := s.repo.GetByUserID(ctx, userID)
	if existing != nil {
		log.WithField("user_id", userID).Info("Участник перезашёл в чат, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	member := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый участник зарегистрирован")
	return nil
}

// EnsureMember гарантирует, что пользователь есть в базе.
// Вызывается при первом сообщении в чате.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

// IsMember проверяет, является ли пользователь участником чата.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, username)
}

// AssignRole назначает участнику роль. Пустая роль снимает её.
func (s *Service) AssignRole(ctx context.Context, userID int64, role string) error {
	if len([]rune(role)) > 64 {
		return common.ErrRoleTooLong
	}
	if role == "" {
		return s.repo.UpdateRole(ctx, userID, nil)
	}
	return s.repo.UpdateRole(ctx, userID, &role)
}

// RoleExists проверяет, используется ли роль хотя бы одним участником.
func (s *Service) RoleExists(ctx context.Context, role string) (bool, error) {
	return s.repo.RoleExists(ctx, role)
}

// ResolveRoleMembers разворачивает роль в список строковых ID участников.
// Реализует контракт GroupResolver для парсера признаний: роль — это
// группа. Пустая/неизвестная роль — пустой список, не ошибка.
func (s *Service) ResolveRoleMembers(ctx context.Context, role string) ([]string, error) {
	ids, err := s.repo.GetUserIDsByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out, nil
}

// DisplayNameByID возвращает отображаемое имя по строковому ID.
// Если участник не найден — возвращает сам ID, чтобы сообщение
// осталось читаемым.
func (s *Service) DisplayNameByID(ctx context.Context, userID string) string {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return userID
	}
	m, err := s.repo.GetByUserID(ctx, id)
	if err != nil {
		return userID
	}
	return m.DisplayName()
}
