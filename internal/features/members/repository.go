// Package members — repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет нового участника в таблицу members.
// На конфликте по user_id обновляет только имя/username (не трогает роль).
func (r *Repository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name, role, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		m.UserID, m.Username, m.FirstName, m.LastName, m.Role, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

// GetByUserID возвращает участника по Telegram user ID.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, role, joined_at, created_at, updated_at
		FROM members WHERE user_id = $1
	`
	var m Member
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
		&m.Role, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("участник не найден: %w", err)
	}
	return &m, nil
}

// GetByUsername возвращает участника по @username (без @).
// Регистр не важен.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Member, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, role, joined_at, created_at, updated_at
		FROM members WHERE LOWER(username) = $1
	`
	var m Member
	err := r.db.QueryRow(ctx, query, strings.ToLower(username)).Scan(
		&m.ID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
		&m.Role, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("участник не найден: %w", err)
	}
	return &m, nil
}

// Exists проверяет, есть ли участник в базе.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE user_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

// UpdateInfo обновляет имя/username участника.
func (r *Repository) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	query := `
		UPDATE members
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := r.db.Exec(ctx, query, userID, info.Username, info.FirstName, info.LastName)
	return err
}

// UpdateRole назначает участнику роль (NULL — снять роль).
func (r *Repository) UpdateRole(ctx context.Context, userID int64, role *string) error {
	query := `UPDATE members SET role = $2, updated_at = NOW() WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID, role)
	return err
}

// GetUserIDsByRole возвращает ID всех участников с указанной ролью.
// Регистр роли не важен. Порядок стабилен (по времени вступления).
func (r *Repository) GetUserIDsByRole(ctx context.Context, role string) ([]int64, error) {
	query := `
		SELECT user_id FROM members
		WHERE LOWER(role) = $1
		ORDER BY joined_at, user_id
	`
	rows, err := r.db.Query(ctx, query, strings.ToLower(role))
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки по роли: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RoleExists проверяет, есть ли хотя бы один участник с такой ролью.
func (r *Repository) RoleExists(ctx context.Context, role string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE LOWER(role) = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, strings.ToLower(role)).Scan(&exists)
	return exists, err
}
