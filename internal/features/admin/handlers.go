// Package admin — handlers.go обрабатывает /login и админ-команды
// управления таксономией признаний.
package admin

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/common"
	"teampoints.ru/recognition-bot/internal/features/ledger"
	"teampoints.ru/recognition-bot/internal/features/members"
)

// Handler обрабатывает админ-команды. Все они работают только в личке
// и только после /login.
type Handler struct {
	service       *Service
	ledgerService *ledger.Service
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админки.
func NewHandler(service *Service, ledgerService *ledger.Service, memberService *members.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		ledgerService: ledgerService,
		memberService: memberService,
		bot:           bot,
	}
}

// HandleLogin — команда /login <пароль> в личке.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if !h.service.IsAdmin(userID) {
		h.sendMessage(chatID, "❌ "+common.ErrNotAdmin.Error())
		return
	}
	if len(args) == 0 {
		h.sendMessage(chatID, "Использование: /login <пароль>")
		return
	}

	if err := h.service.VerifyPassword(ctx, userID, strings.Join(args, " ")); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Неудачный вход в админку")
		h.sendMessage(chatID, "❌ "+err.Error())
		return
	}
	h.sendMessage(chatID, "✅ Вход выполнен. Команды: !лимит, !ценность+, !ценность-, !награда+, !награда-, !сброс-ценности, !сброс-награды, !обнулить, !обнулить-всех, !роль")
}

// HandleLogout — команда /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка выхода из админки")
	}
	h.sendMessage(chatID, "Сессия завершена")
}

// HandleAdminCommand маршрутизирует админ-команды.
// Возвращает true, если команда была админской (даже при отказе в доступе).
func (h *Handler) HandleAdminCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) bool {
	switch cmd {
	case "лимит", "ценность+", "ценность-", "награда+", "награда-",
		"сброс-ценности", "сброс-награды", "обнулить", "обнулить-всех", "роль":
	default:
		return false
	}

	if !h.service.IsAdmin(userID) || !h.service.HasActiveSession(ctx, userID) {
		h.sendMessage(chatID, "❌ Сначала выполните /login в личке")
		return true
	}

	var err error
	switch cmd {
	case "лимит":
		err = h.setLimit(ctx, args)
	case "ценность+":
		err = h.withArg(args, func(tag string) error { return h.ledgerService.AddValue(ctx, tag) })
	case "ценность-":
		err = h.withArg(args, func(tag string) error { return h.ledgerService.RemoveValue(ctx, tag) })
	case "награда+":
		err = h.addReward(ctx, args)
	case "награда-":
		err = h.withArg(args, func(name string) error { return h.ledgerService.RemoveReward(ctx, name) })
	case "сброс-ценности":
		err = h.ledgerService.ResetValues(ctx)
	case "сброс-награды":
		err = h.ledgerService.ResetRewards(ctx)
	case "обнулить":
		err = h.resetUser(ctx, args)
	case "обнулить-всех":
		err = h.ledgerService.ResetAllUsers(ctx)
	case "роль":
		err = h.assignRole(ctx, args)
	}

	if err != nil {
		h.sendMessage(chatID, "❌ "+err.Error())
		return true
	}
	h.sendMessage(chatID, "✅ Готово")
	return true
}

func (h *Handler) setLimit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("использование: !лимит <число>")
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return common.ErrInvalidLimit
	}
	return h.ledgerService.SetDailyLimit(ctx, limit)
}

func (h *Handler) addReward(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("использование: !награда+ <название> <цена>")
	}
	cost, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return errors.New("цена должна быть числом")
	}
	name := strings.Join(args[:len(args)-1], " ")
	return h.ledgerService.AddReward(ctx, name, cost)
}

func (h *Handler) resetUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("использование: !обнулить <@username или id>")
	}
	id, err := h.resolveUserArg(ctx, args[0])
	if err != nil {
		return err
	}
	return h.ledgerService.ResetUserPoints(ctx, id)
}

func (h *Handler) assignRole(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("использование: !роль <@username> [роль] (без роли — снять)")
	}
	idStr, err := h.resolveUserArg(ctx, args[0])
	if err != nil {
		return err
	}
	id, _ := strconv.ParseInt(idStr, 10, 64)
	role := strings.ToLower(strings.Join(args[1:], " "))
	return h.memberService.AssignRole(ctx, id, role)
}

// resolveUserArg превращает «@username» или числовой ID в строковый ID
// для реестра.
func (h *Handler) resolveUserArg(ctx context.Context, arg string) (string, error) {
	if username, ok := strings.CutPrefix(arg, "@"); ok {
		m, err := h.memberService.GetByUsername(ctx, username)
		if err != nil {
			return "", common.ErrUserNotFound
		}
		return strconv.FormatInt(m.UserID, 10), nil
	}
	if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
		return "", common.ErrUserNotFound
	}
	return arg, nil
}

// withArg вызывает fn с единственным аргументом команды.
func (h *Handler) withArg(args []string, fn func(string) error) error {
	if len(args) == 0 {
		return errors.New("не хватает аргумента")
	}
	return fn(strings.Join(args, " "))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
