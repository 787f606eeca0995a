// Package common — pluralize.go отвечает за русскую плюрализацию слова «балл».
package common

import (
	"fmt"
	"math"
)

// PluralizePoints возвращает правильную форму слова «балл» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "балл" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "балла" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "баллов" (0, 5-20, 25-30, 100, ...)
func PluralizePoints(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "балл"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "балла"
	}
	return "баллов"
}

// FormatPoints форматирует количество баллов с учётом настраиваемого
// названия баллов. Для стандартного «балл» склоняем, для кастомного
// названия (например «тако») оставляем как есть.
func FormatPoints(n int, label string) string {
	if label == "" || label == "балл" {
		return fmt.Sprintf("%d %s", n, PluralizePoints(n))
	}
	return fmt.Sprintf("%d %s", n, label)
}
