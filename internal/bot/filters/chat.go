// Package filters отвечает за контроль доступа к боту:
// разрешён один командный чат плюс личка участников этого чата.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/features/members"
)

type ChatFilter struct {
	teamChatID    int64
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

func NewChatFilter(teamChatID int64, memberService *members.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		teamChatID:    teamChatID,
		memberService: memberService,
		bot:           bot,
	}
}

// CheckAccess решает, обрабатывать ли сообщение.
// Разрешено: командный чат и личка зарегистрированных участников.
// Для незнакомой лички членство проверяется через Telegram API.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat/from")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":    "ChatFilter",
		"chat_id":      chatID,
		"user_id":      userID,
		"team_chat_id": f.teamChatID,
	})

	// 1) Разрешённый чат
	if chatID == f.teamChatID {
		logger.Debug("allow: team chat")
		return true
	}

	if !message.Chat.IsPrivate() {
		logger.Debug("deny: чужой групповой чат")
		return false
	}

	// 2) Личка: сначала быстро по БД
	isMember, err := f.memberService.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("member check failed (db)")
		return false
	}
	if isMember {
		logger.Debug("allow: private (db member)")
		return true
	}

	// 2.1) БД не знает пользователя: спрашиваем Telegram о членстве
	cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.teamChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		if err := f.memberService.EnsureMember(
			ctx, userID,
			message.From.UserName,
			message.From.FirstName,
			message.From.LastName,
		); err != nil {
			logger.WithError(err).Warn("EnsureMember failed")
		}
		logger.Debug("allow: private (telegram member)")
		return true
	default:
		logger.Debug("deny: не участник командного чата")
		return false
	}
}
