package utils

import (
	"math"
)

// math.go - математические утилиты для расчёта торговой статистики
//
// Назначение:
// Вспомогательные функции для агрегации сделок и расчёта метрик счёта.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - Round2 / RoundTo: округление до знаков после запятой
// - WeightedAverage: средневзвешенная цена (VWAP)
// - PercentChange: относительное изменение в процентах

// Round2 округляет значение до 2 знаков после запятой.
//
// Стандартное математическое округление (half away from zero).
//
// Примеры:
//   - Round2(1.005) = 1.01
//   - Round2(-2.675) = -2.68
func Round2(value float64) float64 {
	return RoundTo(value, 2)
}

// RoundTo округляет значение до заданного числа знаков после запятой.
//
// Параметры:
//   - value: исходное значение
//   - places: число знаков; при places < 0 возвращает исходное значение
func RoundTo(value float64, places int) float64 {
	if places < 0 {
		return value
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// WeightedAverage расчитывает средневзвешенную по объёму цену (VWAP).
//
// Формула:
//
//	VWAP = Σ(price_i × volume_i) / Σ(volume_i)
//
// Параметры:
//   - prices: цены сделок
//   - volumes: объёмы сделок, длина должна совпадать с prices
//
// Возвращает:
//   - VWAP и true при суммарном объёме > 0
//   - 0 и false при нулевом суммарном объёме или несовпадении длин
func WeightedAverage(prices, volumes []float64) (float64, bool) {
	if len(prices) != len(volumes) {
		return 0, false
	}
	var weighted, total float64
	for i := range prices {
		weighted += prices[i] * volumes[i]
		total += volumes[i]
	}
	if total <= 0 {
		return 0, false
	}
	return weighted / total, true
}

// PercentChange расчитывает относительное изменение в процентах.
//
// Формула:
//
//	Изменение (%) = (delta / base) × 100
//
// Возвращает 0, если base равен нулю.
func PercentChange(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}
