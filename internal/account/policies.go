package account

import (
	"fmt"
	"math"

	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

// policies.go - именованные стратегии расчёта
//
// В разных ревизиях исходной системы встречаются несовместимые формулы
// прибыли/эквити и масштабирования пипсов. Обе ветви каждой формулы
// сохранены как явные, выбираемые конфигурацией стратегии. Молчаливое
// слияние формул недопустимо.

// ============================================================
// Стратегии прибыли и эквити
// ============================================================

// Имена стратегий, принимаемые конфигурацией.
const (
	ProfitPolicyAdditive    = "additive"
	ProfitPolicySubtractive = "subtractive"

	PipPolicyDigits = "digits"
	PipPolicyFixed  = "fixed"
)

// ProfitPolicy выводит эквити, прибыль и доходность счёта
// из сырых полей терминала и сумм балансовых операций.
type ProfitPolicy interface {
	Name() string

	// Derive возвращает (equity, profit, gainPercent).
	// withdrawals передаётся отрицательной суммой, как её считает
	// суммаризатор.
	Derive(info models.AccountInfo, deposits, withdrawals float64) (float64, float64, float64)
}

// additivePolicy: стартовый капитал складывается из балансовых
// операций, прибыль - превышение текущего эквити над ним.
type additivePolicy struct{}

func (additivePolicy) Name() string { return ProfitPolicyAdditive }

func (additivePolicy) Derive(info models.AccountInfo, deposits, withdrawals float64) (float64, float64, float64) {
	starting := deposits + withdrawals
	equity := info.Balance + info.Credit + info.Profit
	profit := equity - starting

	gain := 0.0
	if starting > 0 {
		gain = utils.Round2(utils.PercentChange(profit, starting))
	}
	return equity, profit, gain
}

// subtractivePolicy: реализованная прибыль вычитанием балансовых
// операций из текущего баланса, эквити берётся напрямую из терминала.
type subtractivePolicy struct{}

func (subtractivePolicy) Name() string { return ProfitPolicySubtractive }

func (subtractivePolicy) Derive(info models.AccountInfo, deposits, withdrawals float64) (float64, float64, float64) {
	equity := info.Equity
	profit := info.Balance - deposits - withdrawals

	gain := 0.0
	if deposits > 0 {
		gain = utils.Round2(utils.PercentChange(profit, deposits))
	}
	return equity, profit, gain
}

// ProfitPolicyByName возвращает стратегию по имени из конфигурации.
func ProfitPolicyByName(name string) (ProfitPolicy, error) {
	switch name {
	case ProfitPolicyAdditive:
		return additivePolicy{}, nil
	case ProfitPolicySubtractive:
		return subtractivePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown profit policy %q", name)
	}
}

// ============================================================
// Стратегии масштабирования пипсов
// ============================================================

// PipPolicy переводит разницу цен в пипсы.
// Возвращаемое значение остаётся в "сыром" масштабе сделки;
// деление на 1000 выполняется только на уровне счёта.
type PipPolicy interface {
	Name() string
	Pips(priceDiff float64, digits int) float64
}

// digitsPipPolicy масштабирует по точности символа: 10^(digits-1),
// но не меньше 10^0 для символов с нулевой точностью.
type digitsPipPolicy struct{}

func (digitsPipPolicy) Name() string { return PipPolicyDigits }

func (digitsPipPolicy) Pips(priceDiff float64, digits int) float64 {
	exp := digits - 1
	if exp < 0 {
		exp = 0
	}
	return utils.Round2(priceDiff * math.Pow(10, float64(exp)))
}

// fixedPipPolicy использует фиксированный множитель 10^5
// независимо от точности символа.
type fixedPipPolicy struct{}

func (fixedPipPolicy) Name() string { return PipPolicyFixed }

func (fixedPipPolicy) Pips(priceDiff float64, digits int) float64 {
	return utils.Round2(priceDiff * 1e5)
}

// PipPolicyByName возвращает стратегию по имени из конфигурации.
func PipPolicyByName(name string) (PipPolicy, error) {
	switch name {
	case PipPolicyDigits:
		return digitsPipPolicy{}, nil
	case PipPolicyFixed:
		return fixedPipPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown pip policy %q", name)
	}
}
