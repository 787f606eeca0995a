package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	// лимит считается на каждого пользователя отдельно
	assert.True(t, rl.Allow(2))
}

func TestRateLimiterWindowReopens(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow(1))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "короткий", truncateRunes("короткий", 80))
	// обрезает по рунам, не по байтам
	assert.Equal(t, "прив…", truncateRunes("привет всем", 4))
	assert.Equal(t, "", truncateRunes("", 10))
}
