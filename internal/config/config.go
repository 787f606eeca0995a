// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RewardSeed — начальная награда из окружения (формат «Название:цена»).
type RewardSeed struct {
	Name string
	Cost int
}

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// ID чата, в котором бот работает (единственный разрешённый групповой чат)
	TeamChatID int64 `envconfig:"TEAM_CHAT_ID" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"recognition_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Таймаут на разрешение групповых упоминаний при разборе сообщения
	GroupResolveTimeout time.Duration `envconfig:"GROUP_RESOLVE_TIMEOUT" default:"5s"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Recognition ---
	// Начальные значения таксономии. Применяются только при первом запуске,
	// когда в базе ещё нет снапшота; дальше таксономией управляет админка.
	RecognitionDailyLimit int    `envconfig:"RECOGNITION_DAILY_LIMIT" default:"5"`
	RecognitionValuesRaw  string `envconfig:"RECOGNITION_VALUES" default:"teamwork,excellence,support"`
	RecognitionRewardsRaw string `envconfig:"RECOGNITION_REWARDS" default:""`
	PointsLabel           string `envconfig:"POINTS_LABEL" default:"балл"`

	RecognitionValues  []string     `envconfig:"-"`
	RecognitionRewards []RewardSeed `envconfig:"-"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureRecognitionEnabled bool `envconfig:"FEATURE_RECOGNITION_ENABLED" default:"true"`
	FeatureDigestEnabled      bool `envconfig:"FEATURE_DIGEST_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.TeamChatID == 0 {
		return fmt.Errorf("TEAM_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RecognitionDailyLimit <= 0 {
		return fmt.Errorf("RECOGNITION_DAILY_LIMIT должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	cfg.RecognitionValues = parseValuesCSV(cfg.RecognitionValuesRaw)

	rewards, err := parseRewardsCSV(cfg.RecognitionRewardsRaw)
	if err != nil {
		return nil, fmt.Errorf("RECOGNITION_REWARDS parse: %w", err)
	}
	cfg.RecognitionRewards = rewards

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseValuesCSV разбирает список ценностей: нижний регистр, без дублей.
func parseValuesCSV(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(s, ",") {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// parseRewardsCSV разбирает каталог наград формата «Кофе:50,Футболка:300».
func parseRewardsCSV(s string) ([]RewardSeed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []RewardSeed
	for _, p := range strings.Split(s, ",") {
		name, costRaw, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok {
			return nil, fmt.Errorf("ожидается «название:цена», получено %q", p)
		}
		cost, err := strconv.Atoi(strings.TrimSpace(costRaw))
		if err != nil || cost <= 0 {
			return nil, fmt.Errorf("некорректная цена награды %q", p)
		}
		out = append(out, RewardSeed{Name: strings.TrimSpace(name), Cost: cost})
	}
	return out, nil
}
