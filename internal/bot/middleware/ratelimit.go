// Package middleware — ratelimit.go защищает бота от флуда: на каждого
// пользователя отводится не больше limit сообщений за окно window.
// Счётчик фиксированного окна: дешевле скользящего списка меток времени,
// а для защиты от спама признаниями точность скольжения не нужна.
package middleware

import (
	"sync"
	"time"
)

// userWindow — счётчик сообщений пользователя в текущем окне.
type userWindow struct {
	count    int
	openedAt time.Time
}

// RateLimiter ограничивает частоту сообщений на пользователя.
type RateLimiter struct {
	mu     sync.Mutex
	users  map[int64]*userWindow
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт лимитер. Параметры приходят из
// RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		users:  make(map[int64]*userWindow),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Close останавливает фоновую уборку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, можно ли обработать очередное сообщение пользователя.
// Просроченное окно открывается заново со счётчиком 1.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.users[userID]
	if !ok || now.Sub(w.openedAt) >= rl.window {
		rl.users[userID] = &userWindow{count: 1, openedAt: now}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// sweep периодически выкидывает давно молчащих пользователей,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, w := range rl.users {
				if w.openedAt.Before(cutoff) {
					delete(rl.users, userID)
				}
			}
			rl.mu.Unlock()
		}
	}
}
