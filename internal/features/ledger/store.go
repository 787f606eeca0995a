// Package ledger — store.go определяет интерфейс хранилища снапшотов
// и in-memory реализацию для тестов и локального запуска без БД.
package ledger

import (
	"context"
	"sync"
)

// Store — хранилище полного снапшота состояния.
// Load возвращает (nil, nil), если снапшота ещё нет.
type Store interface {
	Load(ctx context.Context) (*AppState, error)
	Save(ctx context.Context, state *AppState) error
}

// MemoryStore держит снапшот в памяти.
type MemoryStore struct {
	mu    sync.Mutex
	state *AppState
	saves int

	// SaveErr, если задан, возвращается из Save вместо записи.
	SaveErr error
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith создаёт хранилище с готовым снапшотом.
func NewMemoryStoreWith(state *AppState) *MemoryStore {
	return &MemoryStore{state: state.Clone()}
}

// Load возвращает копию сохранённого снапшота.
func (m *MemoryStore) Load(_ context.Context) (*AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	return m.state.Clone(), nil
}

// Save сохраняет копию снапшота.
func (m *MemoryStore) Save(_ context.Context, state *AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = state.Clone()
	m.saves++
	return nil
}

// SaveCount возвращает число успешных сохранений.
func (m *MemoryStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Saved возвращает копию последнего сохранённого снапшота (nil, если нет).
func (m *MemoryStore) Saved() *AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	return m.state.Clone()
}
