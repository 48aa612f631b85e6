package models

import "time"

// PositionType - тип открытой позиции (коды терминала)
type PositionType int

// Типы позиций
const (
	PositionTypeBuy  PositionType = 0
	PositionTypeSell PositionType = 1
)

// String возвращает направление позиции как метку BUY/SELL
func (t PositionType) String() string {
	switch t {
	case PositionTypeBuy:
		return "BUY"
	case PositionTypeSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Position - открытая позиция, как ее отдает терминал.
// Производные поля (gain, change_percent, duration) сюда не входят -
// они вычисляются при чтении и живут в OpenTrade.
type Position struct {
	Ticket       int64        `json:"ticket"`
	Symbol       string       `json:"symbol"`
	Type         PositionType `json:"type"`
	Volume       float64      `json:"volume"`
	PriceOpen    float64      `json:"price_open"`
	PriceCurrent float64      `json:"price_current"`
	Profit       float64      `json:"profit"`
	Swap         float64      `json:"swap"`
	StopLoss     float64      `json:"sl"`
	TakeProfit   float64      `json:"tp"`
	Magic        int64        `json:"magic"`
	Comment      string       `json:"comment,omitempty"`
	Time         time.Time    `json:"time"`
}

// Метки результата трейда
const (
	TradeWon  = "won"
	TradeLost = "lost"
)

// OpenTrade - открытая позиция, декорированная производными полями.
// Считается на момент чтения и никогда не персистится.
type OpenTrade struct {
	Identifier      string    `json:"identifier"`
	Symbol          string    `json:"symbol"`
	Direction       string    `json:"type"`
	Volume          float64   `json:"volume"`
	OpenPrice       float64   `json:"open_price"`
	CurrentPrice    float64   `json:"current_price"`
	Profit          float64   `json:"profit"`
	Swap            float64   `json:"swap"`
	StopLoss        float64   `json:"stop_loss"`
	TakeProfit      float64   `json:"take_profit"`
	Gain            float64   `json:"gain"`
	ChangePercent   float64   `json:"change_percent"`
	MarketValue     float64   `json:"market_value"`
	OpenTime        time.Time `json:"open_time"`
	DurationMinutes int       `json:"duration_in_minutes"`
	Success         string    `json:"success"`
}

// ClosedTrade - синтезированная закрытая позиция: агрегат всех сделок одной
// позиции, у которой есть хотя бы одна открывающая (entry=IN) и хотя бы одна
// закрывающая (entry=OUT/OUT_BY) сделка. Цены открытия/закрытия - VWAP по
// соответствующим подмножествам.
type ClosedTrade struct {
	TradeID         string    `json:"trade_id"`
	Symbol          string    `json:"symbol"`
	Direction       string    `json:"type"`
	Volume          float64   `json:"volume"`
	OpenPrice       float64   `json:"open_price"`
	ClosePrice      float64   `json:"close_price"`
	Commission      float64   `json:"commission"`
	Swap            float64   `json:"swap"`
	Fee             float64   `json:"fee"`
	NetProfit       float64   `json:"profit"`
	Pips            float64   `json:"pips"`
	Gain            float64   `json:"gain"`
	ChangePercent   float64   `json:"change_percent"`
	MarketValue     float64   `json:"market_value"`
	OpenTime        time.Time `json:"open_time"`
	CloseTime       time.Time `json:"close_time"`
	DurationMinutes int       `json:"duration_in_minutes"`
	Success         string    `json:"success"`
}

// BalanceTrade - балансовая операция (депозит или вывод средств).
// Исключается из подсчета трейдов, участвует только в deposits/withdrawals.
type BalanceTrade struct {
	Ticket  int64     `json:"ticket"`
	Profit  float64   `json:"profit"`
	Comment string    `json:"comment,omitempty"`
	Time    time.Time `json:"time"`
}
