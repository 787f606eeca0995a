package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teampoints.ru/recognition-bot/internal/features/ledger"
)

func testConfig() ledger.Config {
	return ledger.Config{
		DailyLimit: 5,
		Values:     []string{"teamwork", "support"},
		Label:      "балл",
	}
}

func TestParseRecognitionSimple(t *testing.T) {
	rec, ok := ParseRecognition(testConfig(), "<@bob> ++ отличная работа", "alice")
	require.True(t, ok)
	assert.Equal(t, "alice", rec.Giver)
	assert.Equal(t, "bob", rec.Receiver)
	assert.Equal(t, 2, rec.Points)
	assert.Equal(t, "отличная работа", rec.Reason)
	assert.Equal(t, ledger.DefaultValue, rec.Value)
}

func TestParseRecognitionPointsCount(t *testing.T) {
	rec, ok := ParseRecognition(testConfig(), "<@bob> + спасибо", "alice")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Points)

	rec, ok = ParseRecognition(testConfig(), "<@bob> ++++ огромное спасибо", "alice")
	require.True(t, ok)
	assert.Equal(t, 4, rec.Points)
}

func TestParseRecognitionTag(t *testing.T) {
	// тег нормализуется к нижнему регистру и обрезает причину
	rec, ok := ParseRecognition(testConfig(), "<@bob> ++ помог с релизом #Teamwork лишний хвост", "alice")
	require.True(t, ok)
	assert.Equal(t, "teamwork", rec.Value)
	assert.Equal(t, "помог с релизом", rec.Reason)

	// признание без причины, но с тегом — допустимо
	rec, ok = ParseRecognition(testConfig(), "<@bob> ++ #support", "alice")
	require.True(t, ok)
	assert.Equal(t, "support", rec.Value)
	assert.Equal(t, "", rec.Reason)
}

func TestParseRecognitionHashInsideWord(t *testing.T) {
	// «#» внутри слова — часть причины, а не тег
	rec, ok := ParseRecognition(testConfig(), "<@bob> ++ выучил c# наконец", "alice")
	require.True(t, ok)
	assert.Equal(t, "выучил c# наконец", rec.Reason)
	assert.Equal(t, ledger.DefaultValue, rec.Value)
}

func TestParseRecognitionRejects(t *testing.T) {
	cfg := testConfig()

	cases := map[string]string{
		"нет цели":            "просто сообщение ++ спасибо",
		"нет плюсов":          "<@bob> спасибо за всё",
		"пустые причина и тег": "<@bob> ++",
		"неизвестный тег":     "<@bob> ++ молодец #unknown",
		"групповая цель":      "<!backend> ++ все молодцы",
		"несколько целей":     "<@bob> <@carol> ++ оба молодцы",
		"незакрытый токен":    "<@bob ++ спасибо",
	}
	for name, text := range cases {
		_, ok := ParseRecognition(cfg, text, "alice")
		assert.False(t, ok, name)
	}

	// самопризнание
	_, ok := ParseRecognition(cfg, "<@alice> ++ я молодец", "alice")
	assert.False(t, ok)
}

func TestParseRecognitionDisplayNamePart(t *testing.T) {
	rec, ok := ParseRecognition(testConfig(), "<@U123|Боб Иванов> ++ спасибо", "alice")
	require.True(t, ok)
	assert.Equal(t, "U123", rec.Receiver)
}

func TestParseAllMultiTarget(t *testing.T) {
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<@bob> <@carol> ++ отличная работа #teamwork", "alice", nil)

	require.Len(t, recs, 2)
	assert.Equal(t, "bob", recs[0].Receiver)
	assert.Equal(t, "carol", recs[1].Receiver)
	for _, r := range recs {
		assert.Equal(t, 2, r.Points)
		assert.Equal(t, "teamwork", r.Value)
		assert.Equal(t, "отличная работа", r.Reason)
	}
	// у кандидатов одного сообщения общий момент времени
	assert.Equal(t, recs[0].CreatedAt, recs[1].CreatedAt)
}

func TestParseAllMultipleUnits(t *testing.T) {
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<@bob> ++ помог с деплоем <@carol> + ревью #support", "alice", nil)

	require.Len(t, recs, 2)
	assert.Equal(t, "bob", recs[0].Receiver)
	assert.Equal(t, 2, recs[0].Points)
	assert.Equal(t, "помог с деплоем", recs[0].Reason)
	assert.Equal(t, ledger.DefaultValue, recs[0].Value)

	assert.Equal(t, "carol", recs[1].Receiver)
	assert.Equal(t, 1, recs[1].Points)
	assert.Equal(t, "support", recs[1].Value)
}

func TestParseAllUnknownTagDropsUnit(t *testing.T) {
	// неизвестный тег отбрасывает юнит целиком, соседний юнит живёт
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<@bob> <@carol> ++ молодцы #hustle <@dave> + спасибо", "alice", nil)

	require.Len(t, recs, 1)
	assert.Equal(t, "dave", recs[0].Receiver)
}

func TestParseAllSkipsSelf(t *testing.T) {
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<@alice> <@bob> ++ мы молодцы", "alice", nil)

	require.Len(t, recs, 1)
	assert.Equal(t, "bob", recs[0].Receiver)
}

func TestParseAllGroupExpansion(t *testing.T) {
	resolver := ResolverFunc(func(_ context.Context, token string) ([]string, error) {
		assert.Equal(t, "backend", token)
		return []string{"alice", "bob", "carol"}, nil
	})

	// дающий внутри группы не получает баллы сам
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<!backend> ++ хороший спринт #teamwork", "alice", resolver)

	require.Len(t, recs, 2)
	assert.Equal(t, "bob", recs[0].Receiver)
	assert.Equal(t, "carol", recs[1].Receiver)
}

func TestParseAllGroupResolverFailure(t *testing.T) {
	resolver := ResolverFunc(func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("registry down")
	})

	// ошибка разрешения группы даёт ноль целей, индивидуальная цель живёт
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<!backend> <@bob> ++ спасибо", "alice", resolver)

	require.Len(t, recs, 1)
	assert.Equal(t, "bob", recs[0].Receiver)
}

func TestParseAllNilResolverIgnoresGroups(t *testing.T) {
	recs := ParseAllRecognitions(context.Background(), testConfig(),
		"<!backend> ++ все молодцы", "alice", nil)
	assert.Empty(t, recs)
}

func TestMightContainRecognition(t *testing.T) {
	assert.True(t, MightContainRecognition("<@bob> ++ спасибо"))
	assert.True(t, MightContainRecognition("<!backend> + спринт"))
	assert.False(t, MightContainRecognition("просто сообщение"))
	assert.False(t, MightContainRecognition("<@bob> без плюсов"))
	assert.False(t, MightContainRecognition("2 ++ 2 = 4"))
}
