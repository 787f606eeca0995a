// Package recognition — detector.go определяет, похоже ли сообщение
// на признание, до запуска полного разбора.
package recognition

import "strings"

// MightContainRecognition — быстрая проверка перед полным разбором.
// Признание требует хотя бы одну ссылку-цель и знак «+».
func MightContainRecognition(text string) bool {
	if !strings.Contains(text, "+") {
		return false
	}
	return strings.Contains(text, "<@") || strings.Contains(text, "<!")
}
