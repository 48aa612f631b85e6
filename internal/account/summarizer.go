package account

import (
	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

// Summarizer сводит агрегированные трейды и сырые поля счёта
// в итоговый снимок. Чистая функция над входами, состояние не хранит.
type Summarizer struct {
	policy ProfitPolicy
}

// NewSummarizer создаёт суммаризатор с выбранной стратегией прибыли.
func NewSummarizer(policy ProfitPolicy) *Summarizer {
	return &Summarizer{policy: policy}
}

// Summarize строит снимок счёта.
func (s *Summarizer) Summarize(
	info models.AccountInfo,
	open []models.OpenTrade,
	closed []models.ClosedTrade,
	balance []models.BalanceTrade,
) *models.AccountSnapshot {
	var deposits, withdrawals float64
	for _, b := range balance {
		if b.Profit >= 0 {
			deposits += b.Profit
		} else {
			withdrawals += b.Profit
		}
	}

	// Выигрышные трейды считаются по открытым и закрытым вместе
	trades := len(open) + len(closed)
	var won int
	var wonProfit float64
	for _, t := range open {
		if t.Profit > 0 {
			won++
			wonProfit += t.Profit
		}
	}
	for _, t := range closed {
		if t.NetProfit > 0 {
			won++
			wonProfit += t.NetProfit
		}
	}

	var wonPercent, averageWin float64
	if trades > 0 {
		wonPercent = utils.Round2(float64(won) / float64(trades) * 100)
	}
	if won > 0 {
		averageWin = utils.Round2(wonProfit / float64(won))
	}

	// Пипсы трейдов остаются в сыром масштабе; деление на 1000
	// выполняется только здесь, на уровне счёта
	var rawPips float64
	for _, t := range closed {
		rawPips += t.Pips
	}
	totalPips := utils.Round2(rawPips / 1000)

	var swapTotal float64
	for _, t := range closed {
		swapTotal += t.Swap
	}
	for _, t := range open {
		swapTotal += t.Swap
	}

	equity, profit, gain := s.policy.Derive(info, deposits, withdrawals)

	return &models.AccountSnapshot{
		AccountInfo: info,

		DerivedEquity: equity,
		DerivedProfit: profit,
		GainPercent:   gain,
		ProfitPolicy:  s.policy.Name(),

		Deposits:    deposits,
		Withdrawals: withdrawals,

		Trades:     trades,
		WonTrades:  won,
		WonPercent: wonPercent,
		AverageWin: averageWin,
		TotalPips:  totalPips,
		SwapTotal:  swapTotal,

		OpenTrades:    open,
		ClosedTrades:  closed,
		BalanceTrades: balance,
	}
}
