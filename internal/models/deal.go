package models

import (
	"time"

	"mtsync/pkg/utils"
)

// DealType - тип сделки в терминах бэкенда (числовые коды терминала)
type DealType int

// Типы сделок
const (
	DealTypeBuy DealType = iota
	DealTypeSell
	DealTypeBalance
	DealTypeCredit
	DealTypeCharge
	DealTypeCorrection
	DealTypeBonus
	DealTypeCommission
	DealTypeCommissionDaily
	DealTypeCommissionMonthly
	DealTypeCommissionAgentDaily
	DealTypeCommissionAgentMonthly
	DealTypeInterest
	DealTypeBuyCanceled
	DealTypeSellCanceled
	DealTypeDividend
	DealTypeDividendFranked
	DealTypeTax
)

var dealTypeNames = map[DealType]string{
	DealTypeBuy:                    "BUY",
	DealTypeSell:                   "SELL",
	DealTypeBalance:                "BALANCE",
	DealTypeCredit:                 "CREDIT",
	DealTypeCharge:                 "CHARGE",
	DealTypeCorrection:             "CORRECTION",
	DealTypeBonus:                  "BONUS",
	DealTypeCommission:             "COMMISSION",
	DealTypeCommissionDaily:        "COMMISSION_DAILY",
	DealTypeCommissionMonthly:      "COMMISSION_MONTHLY",
	DealTypeCommissionAgentDaily:   "COMMISSION_AGENT_DAILY",
	DealTypeCommissionAgentMonthly: "COMMISSION_AGENT_MONTHLY",
	DealTypeInterest:               "INTEREST",
	DealTypeBuyCanceled:            "BUY_CANCELED",
	DealTypeSellCanceled:           "SELL_CANCELED",
	DealTypeDividend:               "DIVIDEND",
	DealTypeDividendFranked:        "DIVIDEND_FRANKED",
	DealTypeTax:                    "TAX",
}

// String возвращает текстовую метку типа сделки
func (t DealType) String() string {
	if name, ok := dealTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// DealEntry - направление сделки относительно позиции
type DealEntry int

// Направления входа/выхода
const (
	DealEntryIn    DealEntry = iota // открытие позиции
	DealEntryOut                    // закрытие позиции
	DealEntryInOut                  // разворот позиции
	DealEntryOutBy                  // закрытие встречной позицией
)

var dealEntryNames = map[DealEntry]string{
	DealEntryIn:    "DEAL_ENTRY_IN",
	DealEntryOut:   "DEAL_ENTRY_OUT",
	DealEntryInOut: "DEAL_ENTRY_INOUT",
	DealEntryOutBy: "DEAL_ENTRY_OUT_BY",
}

// String возвращает текстовую метку направления
func (e DealEntry) String() string {
	if name, ok := dealEntryNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsOpening сообщает, открывает ли сделка позицию
func (e DealEntry) IsOpening() bool {
	return e == DealEntryIn
}

// IsClosing сообщает, закрывает ли сделка позицию (включая close-by)
func (e DealEntry) IsClosing() bool {
	return e == DealEntryOut || e == DealEntryOutBy
}

// DealReason - причина совершения сделки
type DealReason int

// Причины сделок
const (
	DealReasonClient   DealReason = iota // ручная сделка с desktop терминала
	DealReasonMobile                     // ручная сделка с mobile приложения
	DealReasonWeb                        // ручная сделка с web терминала
	DealReasonExpert                     // сделка советника или скрипта
	DealReasonSL                         // сработал Stop Loss
	DealReasonTP                         // сработал Take Profit
	DealReasonSO                         // Stop Out (margin call)
	DealReasonRollover                   // rollover/swap операция
	DealReasonVMargin                    // операция вариационной маржи
	DealReasonSplit                      // сплит позиции или смена символа брокером
)

var dealReasonNames = map[DealReason]string{
	DealReasonClient:   "DEAL_REASON_CLIENT",
	DealReasonMobile:   "DEAL_REASON_MOBILE",
	DealReasonWeb:      "DEAL_REASON_WEB",
	DealReasonExpert:   "DEAL_REASON_EXPERT",
	DealReasonSL:       "DEAL_REASON_SL",
	DealReasonTP:       "DEAL_REASON_TP",
	DealReasonSO:       "DEAL_REASON_SO",
	DealReasonRollover: "DEAL_REASON_ROLLOVER",
	DealReasonVMargin:  "DEAL_REASON_VMARGIN",
	DealReasonSplit:    "DEAL_REASON_SPLIT",
}

// String возвращает текстовую метку причины
func (r DealReason) String() string {
	if name, ok := dealReasonNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Deal - одна неизменяемая запись журнала сделок (fill, балансовая операция и т.д.)
//
// Источник: чтение history_deals за окно [start, end). Время хранится и в
// секундах (Time) и в миллисекундах (TimeMsc) - терминал отдает оба поля,
// миллисекундная метка точнее для расчета длительности.
type Deal struct {
	Ticket     int64      `json:"ticket"`
	Order      int64      `json:"order"`
	PositionID int64      `json:"position_id"`
	Type       DealType   `json:"type"`
	Entry      DealEntry  `json:"entry"`
	Reason     DealReason `json:"reason"`
	Magic      int64      `json:"magic"`
	Volume     float64    `json:"volume"`
	Price      float64    `json:"price"`
	Commission float64    `json:"commission"`
	Swap       float64    `json:"swap"`
	Profit     float64    `json:"profit"`
	Fee        float64    `json:"fee"`
	Symbol     string     `json:"symbol"`
	Comment    string     `json:"comment,omitempty"`
	Time       time.Time  `json:"time"`
	TimeMsc    int64      `json:"time_msc"`
}

// IsBalance сообщает, является ли сделка балансовой операцией
// (депозит/вывод средств)
func (d *Deal) IsBalance() bool {
	return d.Type == DealTypeBalance
}

// ClockTime возвращает метку времени сделки с миллисекундной точностью.
// Старые мосты могут не заполнять time_msc, тогда остается секундная метка
func (d *Deal) ClockTime() time.Time {
	if d.TimeMsc > 0 {
		return utils.FromUnixMsc(d.TimeMsc)
	}
	return d.Time
}

// SymbolInfo - метаданные инструмента, получаемые из терминала один раз
// за сессию и кэшируемые неизменяемыми
type SymbolInfo struct {
	Name         string  `json:"name"`
	ContractSize float64 `json:"contract_size"`
	Digits       int     `json:"digits"`
}

// Значения по умолчанию для инструментов, по которым терминал не вернул
// метаданные. Digits=5 покрывает типичные forex-символы.
const (
	DefaultContractSize = 1.0
	DefaultDigits       = 5
)

// DefaultSymbolInfo возвращает запасные метаданные для символа
func DefaultSymbolInfo(symbol string) SymbolInfo {
	return SymbolInfo{
		Name:         symbol,
		ContractSize: DefaultContractSize,
		Digits:       DefaultDigits,
	}
}
