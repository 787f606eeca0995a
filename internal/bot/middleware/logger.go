// Package middleware содержит промежуточные обработчики: логирование,
// восстановление после паники и rate-limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// насколько длинный хвост сообщения попадает в лог
const logTextLimit = 80

// LogMessage пишет входящее сообщение в debug-лог.
// Текст обрезается по рунам: причины признаний бывают длинными,
// а резать кириллицу по байтам нельзя.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"username": message.From.UserName,
		"chat_id":  message.Chat.ID,
		"private":  message.Chat.IsPrivate(),
		"text":     truncateRunes(message.Text, logTextLimit),
	}).Debug("Входящее сообщение")
}

// truncateRunes обрезает строку до max рун с многоточием.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
