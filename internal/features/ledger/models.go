// Package ledger реализует реестр баллов признания.
// models.go описывает структуры снапшота: таксономию, записи пользователей
// и полное состояние приложения.
package ledger

// DefaultValue — неявная ценность по умолчанию.
// Всегда считается допустимой, даже если её нет в списке Config.Values.
const DefaultValue = "general"

// Reward — награда из каталога. Name уникально в пределах каталога.
type Reward struct {
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// Config — изменяемая таксономия: ценности, дневной лимит, каталог наград
// и отображаемое название баллов.
type Config struct {
	DailyLimit int      `json:"dailyLimit"`
	Values     []string `json:"values"`
	Rewards    []Reward `json:"rewards"`
	Label      string   `json:"label"`
}

// HasValue проверяет, допустим ли тег ценности.
// Тег "general" допустим всегда.
func (c *Config) HasValue(tag string) bool {
	if tag == DefaultValue {
		return true
	}
	for _, v := range c.Values {
		if v == tag {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию конфигурации.
func (c *Config) Clone() Config {
	out := Config{
		DailyLimit: c.DailyLimit,
		Label:      c.Label,
	}
	if c.Values != nil {
		out.Values = append([]string(nil), c.Values...)
	}
	if c.Rewards != nil {
		out.Rewards = append([]Reward(nil), c.Rewards...)
	}
	return out
}

// UserRecord — агрегат баллов одного пользователя.
// Total — всего получено за всё время, ByValue — разбивка по ценностям,
// DailyGiven — сколько выдано сегодня, LastReset — дата окна (YYYY-MM-DD).
type UserRecord struct {
	Total      int            `json:"total"`
	ByValue    map[string]int `json:"byValue"`
	DailyGiven int            `json:"dailyGiven"`
	LastReset  string         `json:"lastReset"`
}

// NewUserRecord создаёт пустую запись с окном, открытым на указанную дату.
func NewUserRecord(date string) *UserRecord {
	return &UserRecord{
		ByValue:   make(map[string]int),
		LastReset: date,
	}
}

// Clone возвращает глубокую копию записи.
func (r *UserRecord) Clone() *UserRecord {
	out := &UserRecord{
		Total:      r.Total,
		DailyGiven: r.DailyGiven,
		LastReset:  r.LastReset,
		ByValue:    make(map[string]int, len(r.ByValue)),
	}
	for k, v := range r.ByValue {
		out.ByValue[k] = v
	}
	return out
}

// AppState — единица персистентности: конфигурация плюс все записи
// пользователей. Сохраняется целиком, без инкрементальных обновлений.
type AppState struct {
	Config Config                 `json:"config"`
	Users  map[string]*UserRecord `json:"users"`
}

// NewAppState создаёт пустое состояние с заданной конфигурацией.
func NewAppState(cfg Config) *AppState {
	return &AppState{
		Config: cfg,
		Users:  make(map[string]*UserRecord),
	}
}

// Clone возвращает глубокую копию состояния.
// Мутирующие операции реестра работают на копии: сначала durable-запись,
// потом подмена живого состояния.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		Config: s.Config.Clone(),
		Users:  make(map[string]*UserRecord, len(s.Users)),
	}
	for id, rec := range s.Users {
		out.Users[id] = rec.Clone()
	}
	return out
}
