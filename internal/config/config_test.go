package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_IDS", "111, 222")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("TEAM_CHAT_ID", "-100500")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=2$salt$hash")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{111, 222}, cfg.AdminIDs)
	assert.Equal(t, int64(-100500), cfg.TeamChatID)
	assert.Equal(t, 5, cfg.RecognitionDailyLimit)
	assert.Equal(t, []string{"teamwork", "excellence", "support"}, cfg.RecognitionValues)
	assert.Empty(t, cfg.RecognitionRewards)
	assert.Equal(t, "балл", cfg.PointsLabel)
}

func TestLoadRewards(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RECOGNITION_REWARDS", "Кофе:50, Футболка:300")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []RewardSeed{
		{Name: "Кофе", Cost: 50},
		{Name: "Футболка", Cost: 300},
	}, cfg.RecognitionRewards)
}

func TestLoadRejectsBadRewards(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("RECOGNITION_REWARDS", "Кофе")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RECOGNITION_REWARDS", "Кофе:ноль")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RECOGNITION_DAILY_LIMIT", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseValuesCSVNormalizes(t *testing.T) {
	values := parseValuesCSV(" Teamwork, support,,SUPPORT , grit")
	assert.Equal(t, []string{"teamwork", "support", "grit"}, values)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "botuser", DBPassword: "pw", DBHost: "postgres",
		DBPort: 5432, DBName: "recognition_bot", DBSSLMode: "disable",
	}
	assert.Equal(t,
		"postgres://botuser:pw@postgres:5432/recognition_bot?sslmode=disable",
		cfg.DatabaseDSN())
}
