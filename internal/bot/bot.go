// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты, фильтрует доступ и маршрутизирует команды
// и признания к обработчикам.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/bot/filters"
	"teampoints.ru/recognition-bot/internal/bot/middleware"
	"teampoints.ru/recognition-bot/internal/config"
	"teampoints.ru/recognition-bot/internal/features/admin"
	"teampoints.ru/recognition-bot/internal/features/ledger"
	"teampoints.ru/recognition-bot/internal/features/members"
	"teampoints.ru/recognition-bot/internal/features/recognition"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberService      *members.Service
	ledgerHandler      *ledger.Handler
	recognitionHandler *recognition.Handler
	adminHandler       *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	ledgerHandler *ledger.Handler,
	recognitionHandler *recognition.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                api,
		cfg:                cfg,
		chatFilter:         chatFilter,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberService:      memberService,
		ledgerHandler:      ledgerHandler,
		recognitionHandler: recognitionHandler,
		adminHandler:       adminHandler,
		parser:             NewCommandParser(),
		inflight:           make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	// Новые участники (событие вступления)
	if update.Message != nil && update.Message.NewChatMembers != nil {
		if update.Message.Chat != nil && update.Message.Chat.ID == b.cfg.TeamChatID {
			b.handleNewMembers(ctx, update.Message.NewChatMembers)
		}
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsureMember — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
		return
	}

	// Не команда в командном чате — ищем признания
	if chatID == b.cfg.TeamChatID && b.cfg.FeatureRecognitionEnabled {
		b.handleChatMessage(ctx, chatID, userID, message.Text)
	}
}

// handleChatMessage нормализует упоминания и проводит признания.
// На разрешение групп даётся отдельный таймаут.
func (b *Bot) handleChatMessage(ctx context.Context, chatID, userID int64, text string) {
	normalized := NormalizeMentions(ctx, b.memberService, text)
	if !recognition.MightContainRecognition(normalized) {
		return
	}

	timeout := b.cfg.GroupResolveTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b.recognitionHandler.HandleMessage(ctx, chatID, strconv.FormatInt(userID, 10), normalized)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	isPrivate := chatID == userID

	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(chatID, "Признание: @кому ++ за что #ценность\n"+
			"Команды: !баллы, !топ, !ценности, !награды, !купить <название>\n"+
			"Админ (в личке): /login <пароль>")

	case "login":
		if isPrivate {
			b.adminHandler.HandleLogin(ctx, chatID, userID, args)
		}

	case "logout":
		if isPrivate {
			b.adminHandler.HandleLogout(ctx, chatID, userID)
		}

	case "баллы":
		b.ledgerHandler.HandleMyPoints(ctx, chatID, strconv.FormatInt(userID, 10))

	case "топ":
		b.ledgerHandler.HandleTop(ctx, chatID)

	case "ценности":
		b.ledgerHandler.HandleValues(chatID)

	case "награды":
		b.ledgerHandler.HandleRewards(chatID)

	case "купить":
		b.ledgerHandler.HandleRedeem(ctx, chatID, strconv.FormatInt(userID, 10), args)

	default:
		// Админ-команды работают только в личке
		if isPrivate && b.adminHandler.HandleAdminCommand(ctx, chatID, userID, cmd, args) {
			return
		}
	}
}

// handleNewMembers обрабатывает вступление новых участников.
func (b *Bot) handleNewMembers(ctx context.Context, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := b.memberService.HandleNewMember(ctx, user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("HandleNewMember failed")
		}
		log.WithField("user", user.UserName).Info("Новый участник обработан")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToChat отправляет сообщение в произвольный чат
// (используется планировщиком для дайджеста).
func (b *Bot) SendMessageToChat(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

// CommandParser парсит команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	// «++» в начале строки — это не команда, а возможное признание
	if strings.HasPrefix(text, "+") {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
