// Package recognition реализует разбор признаний из свободного текста
// и их проведение через реестр баллов.
// models.go описывает кандидата признания.
package recognition

import "time"

// Recognition — одно признание: кто, кому, за что, по какой ценности
// и сколько баллов. Кандидат эфемерен: хранится только его эффект
// в записях реестра.
type Recognition struct {
	Giver     string
	Receiver  string
	Reason    string
	Value     string
	Points    int
	CreatedAt time.Time
}
