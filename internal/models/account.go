package models

// AccountInfo - сырые поля торгового счета, как их отдает терминал
type AccountInfo struct {
	Login        int64   `json:"login"`
	TradeMode    int     `json:"trade_mode"`
	Leverage     int     `json:"leverage"`
	MarginMode   int     `json:"margin_mode"`
	Balance      float64 `json:"balance"`
	Credit       float64 `json:"credit"`
	Profit       float64 `json:"profit"`
	Equity       float64 `json:"equity"`
	Margin       float64 `json:"margin"`
	MarginFree   float64 `json:"margin_free"`
	MarginLevel  float64 `json:"margin_level"`
	MarginSOCall float64 `json:"margin_so_call"`
	MarginSOSO   float64 `json:"margin_so_so"`
	Currency     string  `json:"currency"`
	Server       string  `json:"server"`
	Name         string  `json:"name"`
	Company      string  `json:"company"`
}

// AccountSnapshot - итоговый снимок счета: сырые поля плюс производная
// статистика и агрегированные списки трейдов. Единственный результат одного
// вызова синхронизации; после возврата никем не хранится.
type AccountSnapshot struct {
	AccountInfo

	// Производные поля (формулы выбираются профильной политикой, см. policies.go)
	DerivedEquity float64 `json:"derived_equity"`
	DerivedProfit float64 `json:"derived_profit"`
	GainPercent   float64 `json:"gain_percent"`
	ProfitPolicy  string  `json:"profit_policy"`

	Deposits    float64 `json:"deposits"`
	Withdrawals float64 `json:"withdrawals"`

	Trades     int     `json:"trades"`
	WonTrades  int     `json:"won_trades"`
	WonPercent float64 `json:"won_percent"`
	AverageWin float64 `json:"average_win"`
	TotalPips  float64 `json:"total_pips"`
	SwapTotal  float64 `json:"swap_total"`

	OpenTrades    []OpenTrade    `json:"open_trades"`
	ClosedTrades  []ClosedTrade  `json:"closed_trades"`
	BalanceTrades []BalanceTrade `json:"balance_trades"`
}

// SyncResponse - выходной конверт синхронизации.
// Ожидаемые отказы (нет свободных терминалов, неверные credentials, пустой
// счет после всех попыток) приходят как {status:false, message} и никогда
// как panic/fault.
type SyncResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    *AccountSnapshot `json:"data,omitempty"`
}

// Сообщения конверта для ожидаемых отказов
const (
	MsgInvalidRequest     = "invalid request"
	MsgNoFreeTerminals    = "no free terminals"
	MsgInvalidCredentials = "invalid trading account credentials"
	MsgInitializeFailed   = "could not initialize trading account"
	MsgAccountUnavailable = "could not fetch account data"
	MsgAccountFetched     = "account fetched successfully"
)

// Failure строит конверт отказа
func Failure(message string) *SyncResponse {
	return &SyncResponse{Status: false, Message: message}
}

// Success строит успешный конверт со снимком счета
func Success(snapshot *AccountSnapshot) *SyncResponse {
	return &SyncResponse{Status: true, Message: MsgAccountFetched, Data: snapshot}
}
