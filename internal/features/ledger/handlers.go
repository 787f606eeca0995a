// Package ledger — handlers.go обрабатывает команды !баллы, !топ,
// !ценности, !награды и !купить.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
	"teampoints.ru/recognition-bot/internal/features/members"
)

// Handler обрабатывает команды реестра баллов.
type Handler struct {
	service       *Service
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик реестра.
func NewHandler(service *Service, memberService *members.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, memberService: memberService, bot: bot}
}

// HandleMyPoints — команда !баллы. Показывает свои баллы и остаток
// дневного лимита.
func (h *Handler) HandleMyPoints(ctx context.Context, chatID int64, userID string) {
	cfg := h.service.GetConfig()
	rec := h.service.GetUserRecord(userID)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Твои баллы: %s\n", common.FormatPoints(rec.Total, cfg.Label)))

	if len(rec.ByValue) > 0 {
		sb.WriteString("\nПо ценностям:\n")
		tags := make([]string, 0, len(rec.ByValue))
		for tag := range rec.ByValue {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			sb.WriteString(fmt.Sprintf("  #%s — %d\n", tag, rec.ByValue[tag]))
		}
	}

	given := rec.DailyGiven
	if rec.LastReset != common.Today() {
		// Окно устарело — фактически сегодня ещё ничего не выдано
		given = 0
	}
	left := cfg.DailyLimit - given
	if left < 0 {
		left = 0
	}
	sb.WriteString(fmt.Sprintf("\nСегодня можно выдать ещё: %s", common.FormatPoints(left, cfg.Label)))

	h.sendMessage(chatID, sb.String())
}

// HandleTop — команда !топ. Десятка самых признанных.
func (h *Handler) HandleTop(ctx context.Context, chatID int64) {
	entries := h.service.Leaderboard(10)
	if len(entries) == 0 {
		h.sendMessage(chatID, "📋 Пока никто не получал баллов")
		return
	}

	cfg := h.service.GetConfig()
	var sb strings.Builder
	sb.WriteString("🏆 Топ получателей:\n")
	for i, e := range entries {
		name := h.memberService.DisplayNameByID(ctx, e.UserID)
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, name, common.FormatPoints(e.Total, cfg.Label)))
	}
	h.sendMessage(chatID, sb.String())
}

// HandleValues — команда !ценности. Список допустимых тегов.
func (h *Handler) HandleValues(chatID int64) {
	cfg := h.service.GetConfig()

	var sb strings.Builder
	sb.WriteString("💎 Ценности команды:\n")
	sb.WriteString(fmt.Sprintf("  #%s (по умолчанию)\n", DefaultValue))
	for _, v := range cfg.Values {
		sb.WriteString(fmt.Sprintf("  #%s\n", v))
	}
	h.sendMessage(chatID, sb.String())
}

// HandleRewards — команда !награды. Каталог наград с ценами.
func (h *Handler) HandleRewards(chatID int64) {
	cfg := h.service.GetConfig()
	if len(cfg.Rewards) == 0 {
		h.sendMessage(chatID, "🎁 Каталог наград пока пуст")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎁 Награды:\n")
	for _, r := range cfg.Rewards {
		sb.WriteString(fmt.Sprintf("  %s — %s\n", r.Name, common.FormatPoints(r.Cost, cfg.Label)))
	}
	sb.WriteString("\nКупить: !купить <название>")
	h.sendMessage(chatID, sb.String())
}

// HandleRedeem — команда !купить <название>.
func (h *Handler) HandleRedeem(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Использование: !купить <название награды>")
		return
	}
	name := strings.Join(args, " ")

	ok, err := h.service.RedeemReward(ctx, userID, name)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("Ошибка выкупа награды")
		h.sendMessage(chatID, "❌ Не удалось сохранить покупку, попробуйте позже")
		return
	}
	if !ok {
		h.sendMessage(chatID, "❌ Такой награды нет или баллов не хватает (!награды — каталог)")
		return
	}

	rec := h.service.GetUserRecord(userID)
	cfg := h.service.GetConfig()
	h.sendMessage(chatID, fmt.Sprintf("🎉 «%s» твоя! Остаток: %s",
		name, common.FormatPoints(rec.Total, cfg.Label)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
