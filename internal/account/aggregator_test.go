package account

import (
	"context"
	"math"
	"testing"
	"time"

	"mtsync/internal/models"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func deal(positionID int64, typ models.DealType, entry models.DealEntry, volume, price, profit float64, at time.Time) models.Deal {
	return models.Deal{
		Ticket:     positionID*10 + int64(entry),
		PositionID: positionID,
		Type:       typ,
		Entry:      entry,
		Symbol:     "EURUSD",
		Volume:     volume,
		Price:      price,
		Profit:     profit,
		Time:       at,
		TimeMsc:    at.UnixMilli(),
	}
}

func newTestAggregator() (*Aggregator, *MockSymbolLookup) {
	symbols := NewMockSymbolLookup()
	pips, _ := PipPolicyByName(PipPolicyDigits)
	return NewAggregator(symbols, pips), symbols
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// ============================================================
// Тесты ClosedTrades
// ============================================================

func TestClosedTrades_SimpleBuy(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 100000, Digits: 5}

	open := deal(100, models.DealTypeBuy, models.DealEntryIn, 0.5, 1.1000, 0, baseTime)
	open.Commission = -2
	close := deal(100, models.DealTypeSell, models.DealEntryOut, 0.5, 1.1050, 250, baseTime.Add(90*time.Minute))
	close.Swap = -1

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]

	if tr.TradeID != "100" {
		t.Errorf("trade id = %s, want 100", tr.TradeID)
	}
	if tr.Direction != "BUY" {
		t.Errorf("direction = %s, want BUY", tr.Direction)
	}
	approx(t, "open price", tr.OpenPrice, 1.1000)
	approx(t, "close price", tr.ClosePrice, 1.1050)
	approx(t, "volume", tr.Volume, 0.5)
	// net_profit суммирует profit+swap+commission+fee по всем сделкам корзины
	approx(t, "net profit", tr.NetProfit, 250-1-2)
	// digits=5: 0.005 * 10^4 = 50
	approx(t, "pips", tr.Pips, 50)
	// market_value = priceDiff * volume * contract_size
	approx(t, "market value", tr.MarketValue, 0.005*0.5*100000)
	if tr.DurationMinutes != 90 {
		t.Errorf("duration = %d, want 90", tr.DurationMinutes)
	}
	if tr.Success != models.TradeWon {
		t.Errorf("success = %s, want won", tr.Success)
	}
}

func TestClosedTrades_SellDirectionSign(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 100000, Digits: 5}

	// Продажа по 1.1050, закрытие покупкой по 1.1000 - прибыльный шорт
	open := deal(200, models.DealTypeSell, models.DealEntryIn, 1.0, 1.1050, 0, baseTime)
	close := deal(200, models.DealTypeBuy, models.DealEntryOut, 1.0, 1.1000, 500, baseTime.Add(time.Hour))

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Direction != "SELL" {
		t.Errorf("direction = %s, want SELL", tr.Direction)
	}
	// Для шорта priceDiff = open - close > 0
	approx(t, "pips", tr.Pips, 50)
	approx(t, "market value", tr.MarketValue, 0.005*1.0*100000)
}

func TestClosedTrades_VWAPPartialFills(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 1, Digits: 5}

	deals := []models.Deal{
		deal(300, models.DealTypeBuy, models.DealEntryIn, 3.0, 1.0, 0, baseTime),
		deal(300, models.DealTypeBuy, models.DealEntryIn, 1.0, 2.0, 0, baseTime.Add(time.Minute)),
		deal(300, models.DealTypeSell, models.DealEntryOut, 2.0, 1.5, 10, baseTime.Add(time.Hour)),
		deal(300, models.DealTypeSell, models.DealEntryOut, 2.0, 2.5, 10, baseTime.Add(2*time.Hour)),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]

	// VWAP открытия: (3*1 + 1*2) / 4 = 1.25
	approx(t, "open price", tr.OpenPrice, 1.25)
	// VWAP закрытия: (2*1.5 + 2*2.5) / 4 = 2.0
	approx(t, "close price", tr.ClosePrice, 2.0)
	approx(t, "volume", tr.Volume, 4.0)
	if !tr.OpenTime.Equal(baseTime) {
		t.Errorf("open time = %v, want earliest opening deal", tr.OpenTime)
	}
	if !tr.CloseTime.Equal(baseTime.Add(2 * time.Hour)) {
		t.Errorf("close time = %v, want latest closing deal", tr.CloseTime)
	}
}

func TestClosedTrades_ZeroCloseVolumeFallback(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 1, Digits: 5}

	// Терминал отдал закрывающую сделку с нулевым объёмом:
	// знаменателем VWAP закрытия служит объём открытия
	deals := []models.Deal{
		deal(400, models.DealTypeBuy, models.DealEntryIn, 2.0, 1.0, 0, baseTime),
		deal(400, models.DealTypeSell, models.DealEntryOut, 0, 3.0, 5, baseTime.Add(time.Hour)),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	// close VWAP = (3.0 * 0) / 2.0 = 0
	approx(t, "close price", trades[0].ClosePrice, 0)
}

func TestClosedTrades_InOutCountsOnlyForProfit(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 1, Digits: 5}

	deals := []models.Deal{
		deal(500, models.DealTypeBuy, models.DealEntryIn, 1.0, 1.0, 0, baseTime),
		// Разворот позиции: участвует в net_profit, но не в VWAP сторон
		deal(500, models.DealTypeSell, models.DealEntryInOut, 2.0, 5.0, 7, baseTime.Add(30*time.Minute)),
		deal(500, models.DealTypeSell, models.DealEntryOut, 1.0, 2.0, 3, baseTime.Add(time.Hour)),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	approx(t, "net profit", tr.NetProfit, 10)
	approx(t, "open price", tr.OpenPrice, 1.0)
	approx(t, "close price", tr.ClosePrice, 2.0)
	approx(t, "volume", tr.Volume, 1.0)
}

func TestClosedTrades_OutByClosesPosition(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 1, Digits: 5}

	deals := []models.Deal{
		deal(600, models.DealTypeBuy, models.DealEntryIn, 1.0, 1.0, 0, baseTime),
		deal(600, models.DealTypeSell, models.DealEntryOutBy, 1.0, 1.2, 2, baseTime.Add(time.Hour)),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 1 {
		t.Fatalf("OUT_BY must close the position, got %d trades", len(trades))
	}
}

func TestClosedTrades_SkipsIncompleteAndBalance(t *testing.T) {
	agg, _ := newTestAggregator()

	balance := models.Deal{
		Ticket: 1, Type: models.DealTypeBalance, Profit: 1000, Time: baseTime,
	}
	deals := []models.Deal{
		balance,
		// Только открытие - позиция ещё открыта
		deal(700, models.DealTypeBuy, models.DealEntryIn, 1.0, 1.0, 0, baseTime),
		// Только закрытие - открытие за пределами окна истории
		deal(701, models.DealTypeSell, models.DealEntryOut, 1.0, 1.0, 5, baseTime),
		// Сделка без позиции
		deal(0, models.DealTypeBuy, models.DealEntryIn, 1.0, 1.0, 0, baseTime),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}
}

func TestClosedTrades_ChangePercentUsesClosingProfit(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 100, Digits: 5}

	open := deal(800, models.DealTypeBuy, models.DealEntryIn, 2.0, 1.25, 0, baseTime)
	open.Commission = -10
	close := deal(800, models.DealTypeSell, models.DealEntryOut, 2.0, 1.30, 40, baseTime.Add(time.Hour))

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	tr := trades[0]

	// change_percent = closingProfit / (volume * contract * openVWAP) * 100
	approx(t, "change percent", tr.ChangePercent, 40/(2.0*100*1.25)*100)
	// gain использует net_profit
	approx(t, "gain", tr.Gain, (40-10)/(1.25*2.0*100)*100)
}

func TestClosedTrades_OrderedByOpenTime(t *testing.T) {
	agg, _ := newTestAggregator()

	deals := []models.Deal{
		deal(2, models.DealTypeBuy, models.DealEntryIn, 1, 1, 0, baseTime.Add(time.Hour)),
		deal(2, models.DealTypeSell, models.DealEntryOut, 1, 1, 1, baseTime.Add(2*time.Hour)),
		deal(1, models.DealTypeBuy, models.DealEntryIn, 1, 1, 0, baseTime),
		deal(1, models.DealTypeSell, models.DealEntryOut, 1, 1, 1, baseTime.Add(time.Hour)),
	}

	trades := agg.ClosedTrades(context.Background(), deals)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "1" || trades[1].TradeID != "2" {
		t.Errorf("trades not ordered by open time: %s, %s", trades[0].TradeID, trades[1].TradeID)
	}
}

func TestClosedTrades_DurationUsesMillisecondStamps(t *testing.T) {
	agg, _ := newTestAggregator()

	open := deal(500, models.DealTypeBuy, models.DealEntryIn, 1, 1.1000, 0, baseTime)
	close := deal(500, models.DealTypeSell, models.DealEntryOut, 1, 1.1010, 10, baseTime)
	// Секундная метка округлена терминалом вверх до ровных 30 секунд,
	// миллисекундная - точная. По секундам вышла бы минута
	close.Time = baseTime.Add(30 * time.Second)
	close.TimeMsc = baseTime.Add(29900 * time.Millisecond).UnixMilli()

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].DurationMinutes != 0 {
		t.Errorf("duration = %d, want 0", trades[0].DurationMinutes)
	}
	if want := baseTime.Add(29900 * time.Millisecond); !trades[0].CloseTime.Equal(want) {
		t.Errorf("close time = %v, want %v", trades[0].CloseTime, want)
	}
}

func TestClosedTrades_FallsBackToSecondsWithoutMsc(t *testing.T) {
	agg, _ := newTestAggregator()

	open := deal(501, models.DealTypeBuy, models.DealEntryIn, 1, 1.1000, 0, baseTime)
	open.TimeMsc = 0
	close := deal(501, models.DealTypeSell, models.DealEntryOut, 1, 1.1010, 10, baseTime.Add(90*time.Minute))
	close.TimeMsc = 0

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].DurationMinutes != 90 {
		t.Errorf("duration = %d, want 90", trades[0].DurationMinutes)
	}
	if !trades[0].OpenTime.Equal(baseTime) {
		t.Errorf("open time = %v, want %v", trades[0].OpenTime, baseTime)
	}
}

func TestClosedTrades_FixedPipPolicy(t *testing.T) {
	symbols := NewMockSymbolLookup()
	symbols.infos["XAUUSD"] = models.SymbolInfo{Name: "XAUUSD", ContractSize: 100, Digits: 2}
	pips, _ := PipPolicyByName(PipPolicyFixed)
	agg := NewAggregator(symbols, pips)

	open := deal(900, models.DealTypeBuy, models.DealEntryIn, 1, 2000.00, 0, baseTime)
	open.Symbol = "XAUUSD"
	close := deal(900, models.DealTypeSell, models.DealEntryOut, 1, 2000.50, 50, baseTime.Add(time.Hour))
	close.Symbol = "XAUUSD"

	trades := agg.ClosedTrades(context.Background(), []models.Deal{open, close})
	// Фиксированный множитель 10^5 независимо от digits
	approx(t, "pips", trades[0].Pips, 0.5*1e5)
}

// ============================================================
// Тесты OpenTrades
// ============================================================

func TestOpenTrades_Decoration(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 100000, Digits: 5}

	now := baseTime.Add(2 * time.Hour)
	agg.now = func() time.Time { return now }

	positions := []models.Position{
		{
			Ticket:       42,
			Symbol:       "EURUSD",
			Type:         models.PositionTypeBuy,
			Volume:       0.1,
			PriceOpen:    1.1000,
			PriceCurrent: 1.1020,
			Profit:       20,
			Swap:         -0.5,
			Time:         baseTime,
		},
		{
			Ticket:       43,
			Symbol:       "EURUSD",
			Type:         models.PositionTypeSell,
			Volume:       0.1,
			PriceOpen:    1.1000,
			PriceCurrent: 1.1020,
			Profit:       -20,
			Time:         baseTime,
		},
	}

	trades := agg.OpenTrades(context.Background(), positions)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}

	buy := trades[0]
	if buy.Identifier != "42" || buy.Direction != "BUY" {
		t.Errorf("unexpected buy decoration: %s %s", buy.Identifier, buy.Direction)
	}
	if buy.DurationMinutes != 120 {
		t.Errorf("duration = %d, want 120", buy.DurationMinutes)
	}
	if buy.Success != models.TradeWon {
		t.Errorf("buy success = %s, want won", buy.Success)
	}
	approx(t, "buy market value", buy.MarketValue, 0.002*0.1*100000)

	sell := trades[1]
	if sell.Direction != "SELL" {
		t.Errorf("sell direction = %s", sell.Direction)
	}
	if sell.Success != models.TradeLost {
		t.Errorf("sell success = %s, want lost", sell.Success)
	}
	// Для шорта рост цены - отрицательная рыночная стоимость
	approx(t, "sell market value", sell.MarketValue, -0.002*0.1*100000)
}

func TestOpenTrades_ZeroEntryValueGuards(t *testing.T) {
	agg, symbols := newTestAggregator()
	symbols.infos["EURUSD"] = models.SymbolInfo{Name: "EURUSD", ContractSize: 0, Digits: 5}

	positions := []models.Position{
		{Ticket: 1, Symbol: "EURUSD", Volume: 1, PriceOpen: 1.1, PriceCurrent: 1.2, Profit: 10, Time: baseTime},
	}

	trades := agg.OpenTrades(context.Background(), positions)
	approx(t, "gain", trades[0].Gain, 0)
	approx(t, "change percent", trades[0].ChangePercent, 0)
}

// ============================================================
// Тесты BalanceTrades
// ============================================================

func TestBalanceTrades(t *testing.T) {
	deals := []models.Deal{
		{Ticket: 1, Type: models.DealTypeBalance, Profit: 1000, Comment: "deposit", Time: baseTime},
		deal(10, models.DealTypeBuy, models.DealEntryIn, 1, 1, 0, baseTime),
		{Ticket: 2, Type: models.DealTypeBalance, Profit: -300, Comment: "withdrawal", Time: baseTime},
	}

	balance := BalanceTrades(deals)
	if len(balance) != 2 {
		t.Fatalf("expected 2 balance trades, got %d", len(balance))
	}
	if balance[0].Profit != 1000 || balance[1].Profit != -300 {
		t.Errorf("unexpected balance profits: %v, %v", balance[0].Profit, balance[1].Profit)
	}
}
