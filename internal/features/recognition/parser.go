// Package recognition — parser.go разбирает текст сообщения на признания.
// Грамматика юнита: одна или несколько ссылок-целей, серия «+» (количество
// баллов), свободный текст причины, опционально завершённый тегом «#ценность».
// Юнит сканируется слева направо до следующей ссылки-цели или конца текста.
//
// Вместо одного большого регулярного выражения — явный проход по токенам:
// правила проверяются по отдельности и тестируются по отдельности.
package recognition

import (
	"context"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/features/ledger"
)

// targetRef — ссылка-цель в тексте: пользователь <@id> или группа <!token>.
// Необязательная часть после «|» (отображаемое имя) отбрасывается.
type targetRef struct {
	id    string
	group bool
	start int // байтовый индекс начала токена
	end   int // байтовый индекс сразу после «>»
}

// findTargets сканирует текст и возвращает все ссылки-цели слева направо.
func findTargets(text string) []targetRef {
	var out []targetRef
	i := 0
	for i+1 < len(text) {
		if text[i] != '<' || (text[i+1] != '@' && text[i+1] != '!') {
			i++
			continue
		}
		closing := strings.IndexByte(text[i+2:], '>')
		if closing < 0 {
			// незакрытый токен — дальше целей нет
			break
		}
		end := i + 2 + closing + 1
		id := text[i+2 : end-1]
		if cut := strings.IndexByte(id, '|'); cut >= 0 {
			id = id[:cut]
		}
		id = strings.TrimSpace(id)
		if id == "" {
			i = end
			continue
		}
		out = append(out, targetRef{id: id, group: text[i+1] == '!', start: i, end: end})
		i = end
	}
	return out
}

// unitBody — разобранное тело юнита после целей.
type unitBody struct {
	points int
	reason string
	tag    string
}

// parseUnitBody разбирает текст юнита после последней цели:
// серия «+», затем причина, опционально завершённая тегом «#...».
// Хотя бы одно из {причина, тег} должно быть непустым.
func parseUnitBody(body string) (unitBody, bool) {
	rest := strings.TrimLeft(body, " \t")
	if !strings.HasPrefix(rest, "+") {
		return unitBody{}, false
	}

	points := 0
	for points < len(rest) && rest[points] == '+' {
		points++
	}
	rest = rest[points:]

	// Тег — первое слово на «#»: оно завершает причину, хвост после
	// тега в причину не попадает.
	tag := ""
	reason := rest
	for idx := 0; idx < len(rest); idx++ {
		if rest[idx] != '#' {
			continue
		}
		if idx > 0 && !isSpaceByte(rest[idx-1]) {
			// «#» внутри слова (например «c#») — часть причины
			continue
		}
		word := rest[idx+1:]
		if sp := strings.IndexFunc(word, unicode.IsSpace); sp >= 0 {
			word = word[:sp]
		}
		if word == "" {
			continue
		}
		tag = word
		reason = rest[:idx]
		break
	}

	reason = strings.TrimSpace(reason)
	tag = strings.ToLower(strings.TrimSpace(tag))
	if reason == "" && tag == "" {
		return unitBody{}, false
	}
	return unitBody{points: points, reason: reason, tag: tag}, true
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// parsedUnit — один юнит: его цели и границы тела.
type parsedUnit struct {
	targets []targetRef
	bodyEnd int
}

// splitUnits группирует цели в юниты: подряд идущие ссылки, разделённые
// только пробелами, принадлежат одному юниту; тело юнита тянется до
// следующей ссылки-цели или конца текста.
func splitUnits(text string, targets []targetRef) []parsedUnit {
	var units []parsedUnit
	for i := 0; i < len(targets); {
		j := i
		for j+1 < len(targets) && strings.TrimSpace(text[targets[j].end:targets[j+1].start]) == "" {
			j++
		}
		bodyEnd := len(text)
		if j+1 < len(targets) {
			bodyEnd = targets[j+1].start
		}
		units = append(units, parsedUnit{targets: targets[i : j+1], bodyEnd: bodyEnd})
		i = j + 1
	}
	return units
}

// resolveValue проверяет тег юнита по таксономии.
// Пустой тег означает ценность по умолчанию.
func resolveValue(cfg *ledger.Config, tag string) (string, bool) {
	if tag == "" {
		return ledger.DefaultValue, true
	}
	if !cfg.HasValue(tag) {
		return "", false
	}
	return tag, true
}

// ParseRecognition — строгий синхронный разбор: простейший синтаксис
// с одной индивидуальной целью, не более одного кандидата.
// Групповые цели в этом режиме не поддерживаются.
func ParseRecognition(cfg ledger.Config, text, giverID string) (*Recognition, bool) {
	targets := findTargets(text)
	units := splitUnits(text, targets)
	if len(units) == 0 {
		return nil, false
	}

	unit := units[0]
	if len(unit.targets) != 1 || unit.targets[0].group {
		return nil, false
	}

	body, ok := parseUnitBody(text[unit.targets[0].end:unit.bodyEnd])
	if !ok {
		return nil, false
	}
	value, ok := resolveValue(&cfg, body.tag)
	if !ok {
		return nil, false
	}
	if unit.targets[0].id == giverID {
		return nil, false
	}

	return &Recognition{
		Giver:     giverID,
		Receiver:  unit.targets[0].id,
		Reason:    body.reason,
		Value:     value,
		Points:    body.points,
		CreatedAt: time.Now(),
	}, true
}

// ParseAllRecognitions разбирает все юниты сообщения: несколько целей на
// юнит, несколько юнитов на сообщение, групповые цели через resolver.
// Это единственный приостанавливающийся путь разбора: nil resolver или
// ошибка разрешения дают пустой набор целей для этой группы, остальное
// сообщение разбирается дальше.
//
// Некорректный ввод никогда не даёт ошибку — просто меньше кандидатов.
func ParseAllRecognitions(ctx context.Context, cfg ledger.Config, text, giverID string, resolver GroupResolver) []Recognition {
	units := splitUnits(text, findTargets(text))
	now := time.Now()

	var out []Recognition
	for _, unit := range units {
		last := unit.targets[len(unit.targets)-1]
		body, ok := parseUnitBody(text[last.end:unit.bodyEnd])
		if !ok {
			continue
		}
		value, ok := resolveValue(&cfg, body.tag)
		if !ok {
			// неизвестная ценность — юнит отбрасывается целиком
			continue
		}

		for _, t := range unit.targets {
			for _, receiver := range expandTarget(ctx, t, resolver) {
				if receiver == giverID {
					// самопризнание отбрасывается молча
					continue
				}
				out = append(out, Recognition{
					Giver:     giverID,
					Receiver:  receiver,
					Reason:    body.reason,
					Value:     value,
					Points:    body.points,
					CreatedAt: now,
				})
			}
		}
	}
	return out
}

// expandTarget превращает цель в список получателей.
func expandTarget(ctx context.Context, t targetRef, resolver GroupResolver) []string {
	if !t.group {
		return []string{t.id}
	}
	if resolver == nil {
		return nil
	}
	ids, err := resolver.ResolveGroupMembers(ctx, t.id)
	if err != nil {
		log.WithError(err).WithField("group", t.id).Debug("Группа не разрешилась, цель пропущена")
		return nil
	}
	return ids
}
