// Package recognition — handlers.go обрабатывает признания в чате.
package recognition

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
	"teampoints.ru/recognition-bot/internal/features/ledger"
	"teampoints.ru/recognition-bot/internal/features/members"
)

// Handler обрабатывает сообщения с признаниями.
type Handler struct {
	service       *Service
	ledgerService *ledger.Service
	memberService *members.Service
	resolver      GroupResolver
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик признаний.
func NewHandler(service *Service, ledgerService *ledger.Service, memberService *members.Service, resolver GroupResolver, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		ledgerService: ledgerService,
		memberService: memberService,
		resolver:      resolver,
		bot:           bot,
	}
}

// HandleMessage проводит признания из нормализованного текста и
// объявляет принятые в чате. Если ни одно не принято — бот молчит.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, giverID, text string) {
	accepted, err := h.service.ProcessRecognitionsWithGroups(ctx, text, giverID, h.resolver)
	if err != nil {
		log.WithError(err).WithField("giver", giverID).Error("Ошибка проведения признаний")
	}
	if len(accepted) == 0 {
		return
	}

	label := h.ledgerService.GetConfig().Label

	var sb strings.Builder
	for _, rec := range accepted {
		name := h.memberService.DisplayNameByID(ctx, rec.Receiver)
		sb.WriteString(fmt.Sprintf("⭐ %s: +%s", name, common.FormatPoints(rec.Points, label)))
		if rec.Value != ledger.DefaultValue {
			sb.WriteString(" #" + rec.Value)
		}
		if rec.Reason != "" {
			sb.WriteString(" — " + rec.Reason)
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
