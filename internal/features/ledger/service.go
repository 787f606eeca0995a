// Package ledger — service.go содержит все операции реестра баллов.
// Сервис — единственный писатель состояния: доступ сериализован мьютексом,
// каждая мутация считает новое состояние на копии, пишет его в хранилище
// и только после успешной записи подменяет живое состояние.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
)

// Defaults — начальная таксономия для первого запуска
// и для команд сброса ценностей/наград.
type Defaults struct {
	DailyLimit int
	Values     []string
	Rewards    []Reward
	Label      string
}

// Service — авторитетный реестр баллов.
type Service struct {
	mu       sync.Mutex
	store    Store
	state    *AppState
	defaults Defaults
}

// NewService загружает состояние из хранилища. Если снапшота ещё нет,
// создаёт состояние из Defaults и сразу сохраняет его.
func NewService(ctx context.Context, store Store, defaults Defaults) (*Service, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить состояние реестра: %w", err)
	}

	if state == nil {
		state = NewAppState(Config{
			DailyLimit: defaults.DailyLimit,
			Values:     append([]string(nil), defaults.Values...),
			Rewards:    append([]Reward(nil), defaults.Rewards...),
			Label:      defaults.Label,
		})
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("не удалось сохранить начальное состояние: %w", err)
		}
		log.WithFields(log.Fields{
			"daily_limit": defaults.DailyLimit,
			"values":      len(defaults.Values),
			"rewards":     len(defaults.Rewards),
		}).Info("Создано начальное состояние реестра")
	}

	return &Service{store: store, state: state, defaults: defaults}, nil
}

// commit пишет новое состояние в хранилище и подменяет живое.
// При ошибке записи живое состояние остаётся прежним — память и диск
// не расходятся.
func (s *Service) commit(ctx context.Context, next *AppState) error {
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	s.state = next
	return nil
}

// ensureRecord возвращает запись пользователя в состоянии st,
// создавая пустую при необходимости.
func ensureRecord(st *AppState, userID, today string) *UserRecord {
	rec, ok := st.Users[userID]
	if !ok {
		rec = NewUserRecord(today)
		st.Users[userID] = rec
	}
	return rec
}

// GetConfig возвращает копию текущей конфигурации.
func (s *Service) GetConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Config.Clone()
}

// GetUserRecord возвращает копию записи пользователя.
// Неизвестный пользователь материализуется в живом состоянии с нулевыми
// полями, но в хранилище попадёт только со следующей мутацией.
func (s *Service) GetUserRecord(userID string) UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := ensureRecord(s.state, userID, common.Today())
	return *rec.Clone()
}

// CanGivePoints проверяет, может ли пользователь выдать points баллов
// сегодня. Чистый запрос: ничего не создаёт и не сбрасывает.
// Если окно пользователя устарело (lastReset не сегодня) — выдача
// разрешена: фактический сброс произойдёт внутри RecordRecognition.
func (s *Service) CanGivePoints(giverID string, points int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGivePointsLocked(giverID, points)
}

// canGivePointsLocked — проверка лимита под уже взятым s.mu.
func (s *Service) canGivePointsLocked(giverID string, points int) bool {
	cfg := &s.state.Config
	rec, ok := s.state.Users[giverID]
	if !ok {
		return points <= cfg.DailyLimit
	}
	if rec.LastReset != common.Today() {
		return true
	}
	return rec.DailyGiven+points <= cfg.DailyLimit
}

// RecordRecognition фиксирует признание: лениво сбрасывает дневное окно
// дающего, начисляет баллы обеим сторонам и сохраняет снапшот.
// Извне операция атомарна: частичное применение не наблюдаемо.
// Дневной лимит здесь НЕ проверяется; вызывающим, которым нужна
// проверка, предназначен TryRecordRecognition.
func (s *Service) RecordRecognition(ctx context.Context, giverID, receiverID, value string, points int) error {
	if points < 1 {
		return common.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(ctx, giverID, receiverID, value, points)
}

// TryRecordRecognition проверяет дневной лимит дающего и, если лимит
// позволяет, фиксирует признание. Проверка и запись идут под одним
// захватом мьютекса: два параллельных сообщения одного дающего не могут
// оба пройти проверку и вдвоём превысить лимит.
// Возвращает false без мутации, если лимит не позволяет.
func (s *Service) TryRecordRecognition(ctx context.Context, giverID, receiverID, value string, points int) (bool, error) {
	if points < 1 {
		return false, common.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.canGivePointsLocked(giverID, points) {
		return false, nil
	}
	if err := s.recordLocked(ctx, giverID, receiverID, value, points); err != nil {
		return false, err
	}
	return true, nil
}

// recordLocked — начисление под уже взятым s.mu.
func (s *Service) recordLocked(ctx context.Context, giverID, receiverID, value string, points int) error {
	today := common.Today()
	next := s.state.Clone()

	giver := ensureRecord(next, giverID, today)
	receiver := ensureRecord(next, receiverID, today)

	if giver.LastReset != today {
		giver.DailyGiven = 0
		giver.LastReset = today
	}
	giver.DailyGiven += points

	receiver.Total += points
	receiver.ByValue[value] += points

	if err := s.commit(ctx, next); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"giver":    giverID,
		"receiver": receiverID,
		"value":    value,
		"points":   points,
	}).Info("Признание записано")
	return nil
}

// ResetUserPoints обнуляет все счётчики пользователя и открывает окно
// на сегодня.
func (s *Service) ResetUserPoints(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Users[userID] = NewUserRecord(common.Today())
	return s.commit(ctx, next)
}

// ResetAllUsers обнуляет счётчики всех пользователей.
// Идёт по пользователям в детерминированном порядке и сохраняет состояние
// после каждого — это N последовательных записей, не одна пакетная.
func (s *Service) ResetAllUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.state.Users))
	for id := range s.state.Users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	today := common.Today()
	for _, id := range ids {
		next := s.state.Clone()
		next.Users[id] = NewUserRecord(today)
		if err := s.commit(ctx, next); err != nil {
			return fmt.Errorf("сброс пользователя %s: %w", id, err)
		}
	}
	return nil
}

// RedeemReward списывает стоимость награды с накопленных баллов.
// Возвращает false без какой-либо мутации, если награды нет в каталоге
// или баллов не хватает.
func (s *Service) RedeemReward(ctx context.Context, userID, rewardName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reward, ok := findReward(s.state.Config.Rewards, rewardName)
	if !ok {
		return false, nil
	}

	rec, ok := s.state.Users[userID]
	if !ok || rec.Total < reward.Cost {
		return false, nil
	}

	next := s.state.Clone()
	next.Users[userID].Total -= reward.Cost
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"user":   userID,
		"reward": reward.Name,
		"cost":   reward.Cost,
	}).Info("Награда выкуплена")
	return true, nil
}

// --- Мутаторы конфигурации ---

// SetDailyLimit устанавливает дневной лимит выдачи баллов.
func (s *Service) SetDailyLimit(ctx context.Context, limit int) error {
	if limit <= 0 {
		return common.ErrInvalidLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Config.DailyLimit = limit
	return s.commit(ctx, next)
}

// AddValue добавляет тег ценности (нижний регистр, без дублей).
func (s *Service) AddValue(ctx context.Context, tag string) error {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return common.ErrValueEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Config.HasValue(tag) {
		return common.ErrValueExists
	}

	next := s.state.Clone()
	next.Config.Values = append(next.Config.Values, tag)
	return s.commit(ctx, next)
}

// RemoveValue удаляет тег ценности из списка.
// Накопленные по нему баллы в записях пользователей не трогаем.
func (s *Service) RemoveValue(ctx context.Context, tag string) error {
	tag = strings.ToLower(strings.TrimSpace(tag))

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	filtered := next.Config.Values[:0]
	found := false
	for _, v := range next.Config.Values {
		if v == tag {
			found = true
			continue
		}
		filtered = append(filtered, v)
	}
	if !found {
		return common.ErrValueUnknown
	}
	next.Config.Values = filtered
	return s.commit(ctx, next)
}

// AddReward добавляет награду в каталог. Существующая награда с тем же
// названием получает новую цену.
func (s *Service) AddReward(ctx context.Context, name string, cost int) error {
	name = strings.TrimSpace(name)
	if name == "" || cost <= 0 {
		return common.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	replaced := false
	for i := range next.Config.Rewards {
		if next.Config.Rewards[i].Name == name {
			next.Config.Rewards[i].Cost = cost
			replaced = true
			break
		}
	}
	if !replaced {
		next.Config.Rewards = append(next.Config.Rewards, Reward{Name: name, Cost: cost})
	}
	return s.commit(ctx, next)
}

// RemoveReward удаляет награду из каталога.
func (s *Service) RemoveReward(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	filtered := next.Config.Rewards[:0]
	found := false
	for _, r := range next.Config.Rewards {
		if r.Name == name {
			found = true
			continue
		}
		filtered = append(filtered, r)
	}
	if !found {
		return common.ErrRewardUnknown
	}
	next.Config.Rewards = filtered
	return s.commit(ctx, next)
}

// ResetValues возвращает список ценностей к начальному из конфигурации.
func (s *Service) ResetValues(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Config.Values = append([]string(nil), s.defaults.Values...)
	return s.commit(ctx, next)
}

// ResetRewards возвращает каталог наград к начальному из конфигурации.
func (s *Service) ResetRewards(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Config.Rewards = append([]Reward(nil), s.defaults.Rewards...)
	return s.commit(ctx, next)
}
