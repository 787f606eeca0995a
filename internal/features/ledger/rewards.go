// Package ledger — rewards.go содержит вспомогательные операции
// над каталогом наград и рейтинг получателей.
package ledger

import "sort"

// findReward ищет награду по названию.
func findReward(rewards []Reward, name string) (Reward, bool) {
	for _, r := range rewards {
		if r.Name == name {
			return r, true
		}
	}
	return Reward{}, false
}

// LeaderboardEntry — строка рейтинга получателей баллов.
type LeaderboardEntry struct {
	UserID string
	Total  int
}

// Leaderboard возвращает до limit пользователей с наибольшим Total.
// При равенстве баллов порядок стабилен (по ID).
func (s *Service) Leaderboard(limit int) []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]LeaderboardEntry, 0, len(s.state.Users))
	for id, rec := range s.state.Users {
		if rec.Total == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: id, Total: rec.Total})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
