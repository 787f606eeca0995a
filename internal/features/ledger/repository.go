// Package ledger — repository.go хранит снапшот состояния в PostgreSQL.
// Вся запись — одна строка JSONB: состояние маленькое (агрегаты по
// пользователям), и целостность снапшота важнее стоимости перезаписи.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository реализует Store поверх таблицы ledger_state.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий снапшотов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load читает снапшот. Если строки ещё нет — возвращает (nil, nil),
// реестр в этом случае стартует с конфигурации по умолчанию.
func (r *Repository) Load(ctx context.Context) (*AppState, error) {
	query := `SELECT state FROM ledger_state WHERE id = 1`
	var raw []byte
	err := r.db.QueryRow(ctx, query).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снапшота: %w", err)
	}

	var state AppState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("ошибка декодирования снапшота: %w", err)
	}
	if state.Users == nil {
		state.Users = make(map[string]*UserRecord)
	}
	return &state, nil
}

// Save перезаписывает снапшот целиком (upsert единственной строки).
func (r *Repository) Save(ctx context.Context, state *AppState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка кодирования снапшота: %w", err)
	}

	query := `
		INSERT INTO ledger_state (id, state, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("ошибка записи снапшота: %w", err)
	}
	return nil
}
