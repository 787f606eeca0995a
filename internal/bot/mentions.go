// Package bot — mentions.go нормализует упоминания Telegram в канонические
// токены парсера признаний: @username → <@id>, @роль → <!роль>.
// Парсер остаётся независимым от транспорта — он видит только токены.
package bot

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"teampoints.ru/recognition-bot/internal/features/members"
)

// NormalizeMentions заменяет в тексте @-упоминания на токены.
// Неизвестное слово после @ остаётся как есть: это может быть просто
// текст («встречаемся @ офисе» не трогаем — там нет слова).
//
// Ограничение: участники без @username недостижимы через текстовое
// упоминание, им баллы можно выдать только по числовому ID.
func NormalizeMentions(ctx context.Context, memberService *members.Service, text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '@' || (i > 0 && !isMentionBoundary(text[i-1])) {
			sb.WriteByte(text[i])
			i++
			continue
		}

		j := i + 1
		for j < len(text) && isUsernameByte(text[j]) {
			j++
		}
		word := text[i+1 : j]
		if word == "" {
			sb.WriteByte(text[i])
			i++
			continue
		}

		sb.WriteString(resolveMentionWord(ctx, memberService, word))
		i = j
	}
	return sb.String()
}

// resolveMentionWord превращает слово после @ в токен.
// Порядок: сначала username участника, потом роль-группа, иначе исходный текст.
func resolveMentionWord(ctx context.Context, memberService *members.Service, word string) string {
	if m, err := memberService.GetByUsername(ctx, word); err == nil {
		return "<@" + strconv.FormatInt(m.UserID, 10) + ">"
	}

	exists, err := memberService.RoleExists(ctx, word)
	if err != nil {
		log.WithError(err).WithField("word", word).Debug("Проверка роли не удалась")
		return "@" + word
	}
	if exists {
		return "<!" + strings.ToLower(word) + ">"
	}
	return "@" + word
}

func isMentionBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', ',', ':':
		return true
	}
	return false
}

// isUsernameByte пропускает символы username и кириллицу
// (роли-группы могут быть русскими словами).
func isUsernameByte(b byte) bool {
	return b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' ||
		b == '_' || b >= 0x80
}
