// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с московским временем и форматирование дат.
package common

import "time"

// DateLayout — формат даты дневного окна (YYYY-MM-DD).
// В этом формате хранится lastReset в записях пользователей.
const DateLayout = "2006-01-02"

// GetMoscowTime возвращает текущее время в часовом поясе Москвы (Europe/Moscow).
// Дневное окно выдачи баллов считается по московским суткам.
func GetMoscowTime() time.Time {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить — используем UTC+3 вручную
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return time.Now().In(loc)
}

// GetMoscowDate возвращает только дату (без времени) в часовом поясе Москвы.
func GetMoscowDate() time.Time {
	t := GetMoscowTime()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today возвращает сегодняшнюю московскую дату строкой YYYY-MM-DD.
// Это ключ дневного окна: lastReset == Today() означает «окно актуально».
func Today() string {
	return GetMoscowTime().Format(DateLayout)
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется в сообщениях бота.
func FormatDateTime(t time.Time) string {
	loc, _ := time.LoadLocation("Europe/Moscow")
	return t.In(loc).Format("02.01.2006 15:04")
}
