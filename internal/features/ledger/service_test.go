package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teampoints.ru/recognition-bot/internal/common"
)

func testDefaults() Defaults {
	return Defaults{
		DailyLimit: 5,
		Values:     []string{"teamwork", "excellence", "support"},
		Rewards:    []Reward{{Name: "Кофе", Cost: 50}},
		Label:      "балл",
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc, err := NewService(context.Background(), store, testDefaults())
	require.NoError(t, err)
	return svc, store
}

func TestNewServiceSeedsInitialState(t *testing.T) {
	svc, store := newTestService(t)

	cfg := svc.GetConfig()
	assert.Equal(t, 5, cfg.DailyLimit)
	assert.Equal(t, []string{"teamwork", "excellence", "support"}, cfg.Values)
	assert.Equal(t, []Reward{{Name: "Кофе", Cost: 50}}, cfg.Rewards)

	saved := store.Saved()
	require.NotNil(t, saved)
	assert.Equal(t, 1, store.SaveCount())
	assert.Empty(t, saved.Users)
}

func TestNewServiceLoadsExistingState(t *testing.T) {
	state := NewAppState(Config{DailyLimit: 3, Values: []string{"grit"}, Label: "балл"})
	state.Users["u1"] = &UserRecord{Total: 7, ByValue: map[string]int{"grit": 7}, LastReset: "2026-01-01"}
	store := NewMemoryStoreWith(state)

	svc, err := NewService(context.Background(), store, testDefaults())
	require.NoError(t, err)

	// существующий снапшот имеет приоритет над Defaults
	assert.Equal(t, 3, svc.GetConfig().DailyLimit)
	assert.Equal(t, 7, svc.GetUserRecord("u1").Total)
	assert.Equal(t, 0, store.SaveCount())
}

func TestRecordRecognitionAggregates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 3))

	bob := svc.GetUserRecord("bob")
	assert.Equal(t, 3, bob.Total)
	assert.Equal(t, 3, bob.ByValue["teamwork"])
	assert.Equal(t, 0, bob.DailyGiven)

	alice := svc.GetUserRecord("alice")
	assert.Equal(t, 0, alice.Total)
	assert.Equal(t, 3, alice.DailyGiven)
	assert.Equal(t, common.Today(), alice.LastReset)

	// снапшот на диске совпадает с живым состоянием
	saved := store.Saved()
	require.NotNil(t, saved)
	assert.Equal(t, 3, saved.Users["bob"].Total)
	assert.Equal(t, 3, saved.Users["alice"].DailyGiven)
}

func TestRecordRecognitionRejectsNonPositive(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	before := store.SaveCount()

	assert.ErrorIs(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 0), common.ErrInvalidAmount)
	assert.ErrorIs(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", -2), common.ErrInvalidAmount)
	assert.Equal(t, before, store.SaveCount())
}

func TestCanGivePointsDailyLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// неизвестный пользователь: сравнение с лимитом напрямую
	assert.True(t, svc.CanGivePoints("alice", 5))
	assert.False(t, svc.CanGivePoints("alice", 6))

	require.NoError(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 3))

	// выдано 3 из 5: ровно до границы можно, сверх — нет
	assert.True(t, svc.CanGivePoints("alice", 2))
	assert.False(t, svc.CanGivePoints("alice", 3))
}

func TestCanGivePointsStaleWindow(t *testing.T) {
	state := NewAppState(Config{DailyLimit: 5, Label: "балл"})
	state.Users["alice"] = &UserRecord{
		ByValue:    map[string]int{},
		DailyGiven: 99,
		LastReset:  "2020-01-01",
	}
	store := NewMemoryStoreWith(state)
	svc, err := NewService(context.Background(), store, testDefaults())
	require.NoError(t, err)

	// устаревшее окно: выдача разрешена, фактический сброс будет при записи
	assert.True(t, svc.CanGivePoints("alice", 5))
	assert.True(t, svc.CanGivePoints("alice", 100))
}

func TestRecordRecognitionRollsOverStaleWindow(t *testing.T) {
	state := NewAppState(Config{DailyLimit: 5, Label: "балл"})
	state.Users["alice"] = &UserRecord{
		ByValue:    map[string]int{},
		DailyGiven: 4,
		LastReset:  "2020-01-01",
	}
	store := NewMemoryStoreWith(state)
	svc, err := NewService(context.Background(), store, testDefaults())
	require.NoError(t, err)

	require.NoError(t, svc.RecordRecognition(context.Background(), "alice", "bob", "teamwork", 3))

	alice := svc.GetUserRecord("alice")
	assert.Equal(t, 3, alice.DailyGiven)
	assert.Equal(t, common.Today(), alice.LastReset)
}

func TestGetUserRecordLazyMaterialization(t *testing.T) {
	svc, store := newTestService(t)
	before := store.SaveCount()

	rec := svc.GetUserRecord("ghost")
	assert.Equal(t, 0, rec.Total)
	assert.Equal(t, common.Today(), rec.LastReset)

	// чтение не пишет в хранилище
	assert.Equal(t, before, store.SaveCount())
	assert.NotContains(t, store.Saved().Users, "ghost")

	// запись материализуется вместе со следующей мутацией
	require.NoError(t, svc.RecordRecognition(context.Background(), "alice", "bob", "teamwork", 1))
	assert.Contains(t, store.Saved().Users, "ghost")
}

func TestPersistFailureKeepsMemoryIntact(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 3))

	store.SaveErr = errors.New("диск отвалился")
	err := svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 2)
	require.Error(t, err)

	// живое состояние не изменилось
	assert.Equal(t, 3, svc.GetUserRecord("bob").Total)
	assert.Equal(t, 3, svc.GetUserRecord("alice").DailyGiven)
	assert.Equal(t, 3, store.Saved().Users["bob"].Total)
}

func TestRedeemReward(t *testing.T) {
	state := NewAppState(Config{
		DailyLimit: 5,
		Rewards:    []Reward{{Name: "Кофе", Cost: 50}},
		Label:      "балл",
	})
	state.Users["bob"] = &UserRecord{Total: 100, ByValue: map[string]int{}, LastReset: "2026-01-01"}
	state.Users["poor"] = &UserRecord{Total: 30, ByValue: map[string]int{}, LastReset: "2026-01-01"}
	store := NewMemoryStoreWith(state)
	svc, err := NewService(context.Background(), store, testDefaults())
	require.NoError(t, err)
	ctx := context.Background()

	// неизвестная награда: отказ без ошибки и без мутации
	ok, err := svc.RedeemReward(ctx, "bob", "Яхта")
	require.NoError(t, err)
	assert.False(t, ok)

	// не хватает баллов
	ok, err = svc.RedeemReward(ctx, "poor", "Кофе")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 30, svc.GetUserRecord("poor").Total)
	assert.Equal(t, 0, store.SaveCount())

	// успешный выкуп списывает стоимость
	ok, err = svc.RedeemReward(ctx, "bob", "Кофе")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 50, svc.GetUserRecord("bob").Total)
	assert.Equal(t, 50, store.Saved().Users["bob"].Total)
}

func TestTryRecordRecognition(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	ok, err := svc.TryRecordRecognition(ctx, "alice", "bob", "teamwork", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, svc.GetUserRecord("bob").Total)

	// лимит 5, выдано 3: ещё 3 не влезают, отказ без мутации
	saves := store.SaveCount()
	ok, err = svc.TryRecordRecognition(ctx, "alice", "carol", "teamwork", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, svc.GetUserRecord("carol").Total)
	assert.Equal(t, 3, svc.GetUserRecord("alice").DailyGiven)
	assert.Equal(t, saves, store.SaveCount())

	ok, err = svc.TryRecordRecognition(ctx, "alice", "carol", "teamwork", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, svc.GetUserRecord("alice").DailyGiven)

	_, err = svc.TryRecordRecognition(ctx, "alice", "bob", "teamwork", 0)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestTryRecordRecognitionConcurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 20 параллельных попыток по 3 балла при лимите 5: проверка и запись
	// атомарны, поэтому пройти может ровно одна
	var wg sync.WaitGroup
	var acceptedCount atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.TryRecordRecognition(ctx, "alice", "bob", "teamwork", 3)
			assert.NoError(t, err)
			if ok {
				acceptedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acceptedCount.Load())
	alice := svc.GetUserRecord("alice")
	assert.Equal(t, 3, alice.DailyGiven)
	assert.LessOrEqual(t, alice.DailyGiven, svc.GetConfig().DailyLimit)
	assert.Equal(t, 3, svc.GetUserRecord("bob").Total)
}

func TestResetUserPoints(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 3))
	require.NoError(t, svc.ResetUserPoints(ctx, "bob"))

	bob := svc.GetUserRecord("bob")
	assert.Equal(t, 0, bob.Total)
	assert.Empty(t, bob.ByValue)
	assert.Equal(t, common.Today(), bob.LastReset)
}

func TestResetAllUsers(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordRecognition(ctx, "alice", "bob", "teamwork", 3))
	require.NoError(t, svc.RecordRecognition(ctx, "carol", "dave", "support", 2))

	before := store.SaveCount()
	require.NoError(t, svc.ResetAllUsers(ctx))

	// по одной записи снапшота на пользователя
	assert.Equal(t, before+4, store.SaveCount())
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		rec := svc.GetUserRecord(id)
		assert.Equal(t, 0, rec.Total, "user=%s", id)
		assert.Equal(t, 0, rec.DailyGiven, "user=%s", id)
	}
}

func TestSetDailyLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetDailyLimit(ctx, 0), common.ErrInvalidLimit)
	assert.ErrorIs(t, svc.SetDailyLimit(ctx, -1), common.ErrInvalidLimit)

	require.NoError(t, svc.SetDailyLimit(ctx, 10))
	assert.Equal(t, 10, svc.GetConfig().DailyLimit)
	assert.True(t, svc.CanGivePoints("alice", 10))
}

func TestValueTaxonomy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddValue(ctx, "  "), common.ErrValueEmpty)
	assert.ErrorIs(t, svc.AddValue(ctx, "teamwork"), common.ErrValueExists)

	// тег нормализуется к нижнему регистру
	require.NoError(t, svc.AddValue(ctx, " Grit "))
	cfg := svc.GetConfig()
	assert.True(t, cfg.HasValue("grit"))

	assert.ErrorIs(t, svc.RemoveValue(ctx, "unknown"), common.ErrValueUnknown)
	require.NoError(t, svc.RemoveValue(ctx, "grit"))
	cfg = svc.GetConfig()
	assert.False(t, cfg.HasValue("grit"))

	// general допустим всегда, даже вне списка
	assert.True(t, cfg.HasValue(DefaultValue))

	require.NoError(t, svc.ResetValues(ctx))
	assert.Equal(t, []string{"teamwork", "excellence", "support"}, svc.GetConfig().Values)
}

func TestRewardCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddReward(ctx, "", 10), common.ErrInvalidAmount)
	assert.ErrorIs(t, svc.AddReward(ctx, "Пицца", 0), common.ErrInvalidAmount)

	require.NoError(t, svc.AddReward(ctx, "Пицца", 80))
	// повторное добавление обновляет цену
	require.NoError(t, svc.AddReward(ctx, "Пицца", 90))

	cfg := svc.GetConfig()
	require.Len(t, cfg.Rewards, 2)
	assert.Equal(t, Reward{Name: "Пицца", Cost: 90}, cfg.Rewards[1])

	assert.ErrorIs(t, svc.RemoveReward(ctx, "Суши"), common.ErrRewardUnknown)
	require.NoError(t, svc.RemoveReward(ctx, "Пицца"))

	require.NoError(t, svc.ResetRewards(ctx))
	assert.Equal(t, []Reward{{Name: "Кофе", Cost: 50}}, svc.GetConfig().Rewards)
}

func TestLeaderboard(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordRecognition(ctx, "giver", "bob", "teamwork", 2))
	require.NoError(t, svc.RecordRecognition(ctx, "giver2", "alice", "support", 5))
	require.NoError(t, svc.RecordRecognition(ctx, "giver3", "carol", "support", 2))

	entries := svc.Leaderboard(10)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].UserID)
	// равный Total упорядочен по ID
	assert.Equal(t, "bob", entries[1].UserID)
	assert.Equal(t, "carol", entries[2].UserID)

	// пользователи без баллов не попадают в топ
	for _, e := range entries {
		assert.NotZero(t, e.Total)
	}

	assert.Len(t, svc.Leaderboard(2), 2)
}
