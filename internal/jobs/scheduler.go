// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: еженедельный дайджест
// с топом получателей признаний.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
	"teampoints.ru/recognition-bot/internal/config"
	"teampoints.ru/recognition-bot/internal/features/ledger"
	"teampoints.ru/recognition-bot/internal/features/members"
)

// digestSchedule — понедельник, 10:00 по Москве.
const digestSchedule = "0 10 * * 1"

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	ledgerService *ledger.Service
	memberService *members.Service
	cfg           *config.Config
	sendFunc      func(chatID int64, text string)
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(
	ledgerService *ledger.Service,
	memberService *members.Service,
	cfg *config.Config,
	sendFunc func(chatID int64, text string),
) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:          c,
		ledgerService: ledgerService,
		memberService: memberService,
		cfg:           cfg,
		sendFunc:      sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.FeatureDigestEnabled {
		_, err := s.cron.AddFunc(digestSchedule, func() {
			log.Info("[CRON] Еженедельный дайджест признаний")
			s.sendDigest(ctx)
		})
		if err != nil {
			log.WithError(err).Error("Не удалось зарегистрировать дайджест, задача отключена")
		}
	}

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// sendDigest собирает топ получателей и отправляет его в командный чат.
func (s *Scheduler) sendDigest(ctx context.Context) {
	entries := s.ledgerService.Leaderboard(10)
	if len(entries) == 0 {
		log.Debug("[CRON] Дайджест пуст, нечего отправлять")
		return
	}

	cfg := s.ledgerService.GetConfig()

	var sb strings.Builder
	sb.WriteString("🏆 Топ признаний команды:\n\n")
	for i, entry := range entries {
		name := s.memberService.DisplayNameByID(ctx, entry.UserID)
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n",
			i+1, name, common.FormatPoints(entry.Total, cfg.Label)))
	}

	s.sendFunc(s.cfg.TeamChatID, sb.String())
}
