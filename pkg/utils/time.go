package utils

import (
	"math"
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Границы окна истории сделок и расчёт длительности позиций.
//
// Функции:
// - HistoryWindow: окно [now - years; now) для выборки истории
// - DurationMinutes: длительность позиции в целых минутах
// - FromUnix / FromUnixMsc: преобразование терминальных меток времени

// HistoryWindow возвращает окно выборки истории сделок,
// заканчивающееся текущим моментом (правая граница исключается).
//
// Параметры:
//   - now: момент запроса
//   - years: глубина окна в годах; при years <= 0 используется 1 год
//
// Возвращает: (from, to), где from = now - years, to = now.
func HistoryWindow(now time.Time, years int) (time.Time, time.Time) {
	if years <= 0 {
		years = 1
	}
	return now.AddDate(-years, 0, 0), now
}

// DurationMinutes возвращает длительность между open и close
// в целых минутах (математическое округление). Отрицательные
// длительности обрезаются до нуля.
func DurationMinutes(open, close time.Time) int {
	if close.Before(open) {
		return 0
	}
	return int(math.Round(close.Sub(open).Minutes()))
}

// FromUnix преобразует секунды Unix в time.Time (UTC).
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FromUnixMsc преобразует миллисекунды Unix в time.Time (UTC).
func FromUnixMsc(msc int64) time.Time {
	return time.UnixMilli(msc).UTC()
}
