// Package recognition — service.go проводит разобранные кандидаты через
// реестр: проверка дневного лимита, запись, сохранение порядка разбора.
package recognition

import (
	"context"

	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/features/ledger"
)

// Service — оркестратор признаний. Парсер не знает о лимитах, реестр не
// знает о тексте; сервис связывает их.
type Service struct {
	ledger *ledger.Service
}

// NewService создаёт оркестратор.
func NewService(l *ledger.Service) *Service {
	return &Service{ledger: l}
}

// ProcessRecognitions разбирает сообщение синхронно (без разрешения
// групп: групповые цели дают ноль получателей) и проводит кандидатов
// через реестр. Возвращает принятые признания в порядке разбора.
func (s *Service) ProcessRecognitions(ctx context.Context, text, giverID string) ([]Recognition, error) {
	return s.process(ctx, text, giverID, nil)
}

// ProcessRecognitionsWithGroups — вариант с разворачиванием групповых
// целей через resolver.
func (s *Service) ProcessRecognitionsWithGroups(ctx context.Context, text, giverID string, resolver GroupResolver) ([]Recognition, error) {
	return s.process(ctx, text, giverID, resolver)
}

// process применяет лимит к каждому кандидату заново: внутри одного
// сообщения баллы раздаются в порядке разбора, пока лимит позволяет.
// Отказ по лимиту — не ошибка, кандидат просто не попадает в результат.
//
// Проверка лимита и запись — одна атомарная операция реестра:
// обработчики апдейтов работают параллельно, и раздельная пара
// «проверить, потом записать» позволила бы двум сообщениям одного
// дающего вдвоём пролезть под лимит.
func (s *Service) process(ctx context.Context, text, giverID string, resolver GroupResolver) ([]Recognition, error) {
	candidates := ParseAllRecognitions(ctx, s.ledger.GetConfig(), text, giverID, resolver)

	var accepted []Recognition
	for _, c := range candidates {
		ok, err := s.ledger.TryRecordRecognition(ctx, c.Giver, c.Receiver, c.Value, c.Points)
		if err != nil {
			// Ошибка сохранения фатальна для операции: возвращаем то,
			// что уже принято, и ошибку
			return accepted, err
		}
		if !ok {
			log.WithFields(log.Fields{
				"giver":  c.Giver,
				"points": c.Points,
			}).Debug("Кандидат отклонён: дневной лимит")
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted, nil
}
