package account

import (
	"context"
	"sort"
	"strconv"
	"time"

	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

// SymbolLookup - порт кэша параметров символов.
// Агрегатор не знает, откуда берутся параметры и чем заканчивается
// неудачный поиск: кэш всегда возвращает пригодное значение.
type SymbolLookup interface {
	Get(ctx context.Context, symbol string) models.SymbolInfo
}

// Aggregator синтезирует закрытые позиции из истории сделок и
// декорирует открытые позиции производными метриками.
//
// Агрегатор - чистая вычислительная часть синхронизации: он не ходит
// в терминал напрямую (кроме как через SymbolLookup) и не меняет
// входные данные.
type Aggregator struct {
	symbols SymbolLookup
	pips    PipPolicy
	now     func() time.Time
}

// NewAggregator создаёт агрегатор с выбранной стратегией пипсов.
func NewAggregator(symbols SymbolLookup, pips PipPolicy) *Aggregator {
	return &Aggregator{
		symbols: symbols,
		pips:    pips,
		now:     time.Now,
	}
}

// positionBucket - все сделки одной позиции, разложенные по ролям
type positionBucket struct {
	positionID int64
	all        []models.Deal
	opening    []models.Deal
	closing    []models.Deal
}

// groupByPosition раскладывает сделки по позициям.
//
// Балансовые операции и сделки без идентификатора позиции в корзины
// не попадают. Сделки INOUT остаются в корзине ради net_profit, но не
// входят ни в открывающее, ни в закрывающее подмножество.
func groupByPosition(deals []models.Deal) []positionBucket {
	byID := make(map[int64]*positionBucket)
	order := make([]int64, 0, len(deals))

	for _, d := range deals {
		if d.IsBalance() || d.PositionID <= 0 {
			continue
		}
		b, ok := byID[d.PositionID]
		if !ok {
			b = &positionBucket{positionID: d.PositionID}
			byID[d.PositionID] = b
			order = append(order, d.PositionID)
		}
		b.all = append(b.all, d)
		switch {
		case d.Entry.IsOpening():
			b.opening = append(b.opening, d)
		case d.Entry.IsClosing():
			b.closing = append(b.closing, d)
		}
	}

	buckets := make([]positionBucket, 0, len(order))
	for _, id := range order {
		buckets = append(buckets, *byID[id])
	}
	return buckets
}

// ClosedTrades синтезирует закрытые позиции из истории сделок.
//
// Корзины без открывающей или без закрывающей стороны отбрасываются
// молча: позиция либо ещё открыта, либо открыта до начала окна истории.
// Результат упорядочен по времени открытия.
func (a *Aggregator) ClosedTrades(ctx context.Context, deals []models.Deal) []models.ClosedTrade {
	buckets := groupByPosition(deals)

	trades := make([]models.ClosedTrade, 0, len(buckets))
	for _, b := range buckets {
		if len(b.opening) == 0 || len(b.closing) == 0 {
			continue
		}
		trades = append(trades, a.closeBucket(ctx, b))
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].OpenTime.Equal(trades[j].OpenTime) {
			return trades[i].TradeID < trades[j].TradeID
		}
		return trades[i].OpenTime.Before(trades[j].OpenTime)
	})
	return trades
}

// closeBucket сворачивает корзину с обеими сторонами в закрытый трейд.
func (a *Aggregator) closeBucket(ctx context.Context, b positionBucket) models.ClosedTrade {
	// Направление определяет самая ранняя открывающая сделка.
	// Времена берутся с миллисекундной точностью: частичные закрытия
	// одной позиции часто укладываются в одну секунду
	earliest := b.opening[0]
	earliestTime := earliest.ClockTime()
	for _, d := range b.opening[1:] {
		if t := d.ClockTime(); t.Before(earliestTime) {
			earliest, earliestTime = d, t
		}
	}
	direction := earliest.Type.String()
	openTime := earliestTime

	var openVolume float64
	openPrices := make([]float64, len(b.opening))
	openVolumes := make([]float64, len(b.opening))
	for i, d := range b.opening {
		openPrices[i] = d.Price
		openVolumes[i] = d.Volume
		openVolume += d.Volume
	}
	openPrice, _ := utils.WeightedAverage(openPrices, openVolumes)

	var closeWeighted, closingProfit float64
	closeTime := b.closing[0].ClockTime()
	closePrices := make([]float64, len(b.closing))
	closeVolumes := make([]float64, len(b.closing))
	for i, d := range b.closing {
		closePrices[i] = d.Price
		closeVolumes[i] = d.Volume
		closeWeighted += d.Price * d.Volume
		closingProfit += d.Profit
		if t := d.ClockTime(); t.After(closeTime) {
			closeTime = t
		}
	}

	// При нулевом суммарном объёме закрытия знаменателем служит
	// объём открытия: частичные данные терминала не должны давать
	// деление на ноль
	closePrice, ok := utils.WeightedAverage(closePrices, closeVolumes)
	if !ok && openVolume > 0 {
		closePrice = closeWeighted / openVolume
	}

	var netProfit, commission, swap, fee float64
	for _, d := range b.all {
		netProfit += d.Profit + d.Swap + d.Commission + d.Fee
		commission += d.Commission
		swap += d.Swap
		fee += d.Fee
	}

	priceDiff := closePrice - openPrice
	if direction == models.DealTypeSell.String() {
		priceDiff = openPrice - closePrice
	}

	info := a.symbols.Get(ctx, earliest.Symbol)
	marketValue := priceDiff * openVolume * info.ContractSize

	gain := 0.0
	if entry := openPrice * openVolume * info.ContractSize; entry > 0 {
		gain = utils.PercentChange(netProfit, entry)
	}

	changePercent := 0.0
	if denom := openVolume * info.ContractSize * openPrice; denom > 0 {
		changePercent = utils.PercentChange(closingProfit, denom)
	}

	success := models.TradeLost
	if netProfit > 0 {
		success = models.TradeWon
	}

	return models.ClosedTrade{
		TradeID:         strconv.FormatInt(b.positionID, 10),
		Symbol:          earliest.Symbol,
		Direction:       direction,
		Volume:          openVolume,
		OpenPrice:       openPrice,
		ClosePrice:      closePrice,
		Commission:      commission,
		Swap:            swap,
		Fee:             fee,
		NetProfit:       netProfit,
		Pips:            a.pips.Pips(priceDiff, info.Digits),
		Gain:            gain,
		ChangePercent:   changePercent,
		MarketValue:     marketValue,
		OpenTime:        openTime,
		CloseTime:       closeTime,
		DurationMinutes: utils.DurationMinutes(openTime, closeTime),
		Success:         success,
	}
}

// OpenTrades декорирует открытые позиции производными метриками.
// Длительность считается от открытия до текущего момента.
func (a *Aggregator) OpenTrades(ctx context.Context, positions []models.Position) []models.OpenTrade {
	now := a.now()

	trades := make([]models.OpenTrade, 0, len(positions))
	for _, p := range positions {
		info := a.symbols.Get(ctx, p.Symbol)

		priceDiff := p.PriceCurrent - p.PriceOpen
		if p.Type == models.PositionTypeSell {
			priceDiff = p.PriceOpen - p.PriceCurrent
		}

		gain := 0.0
		if entry := p.PriceOpen * p.Volume * info.ContractSize; entry > 0 {
			gain = utils.PercentChange(p.Profit, entry)
		}

		changePercent := 0.0
		if denom := p.Volume * info.ContractSize * p.PriceOpen; denom > 0 {
			changePercent = utils.PercentChange(p.Profit, denom)
		}

		success := models.TradeLost
		if p.Profit > 0 {
			success = models.TradeWon
		}

		trades = append(trades, models.OpenTrade{
			Identifier:      strconv.FormatInt(p.Ticket, 10),
			Symbol:          p.Symbol,
			Direction:       p.Type.String(),
			Volume:          p.Volume,
			OpenPrice:       p.PriceOpen,
			CurrentPrice:    p.PriceCurrent,
			Profit:          p.Profit,
			Swap:            p.Swap,
			StopLoss:        p.StopLoss,
			TakeProfit:      p.TakeProfit,
			Gain:            gain,
			ChangePercent:   changePercent,
			MarketValue:     priceDiff * p.Volume * info.ContractSize,
			OpenTime:        p.Time,
			DurationMinutes: utils.DurationMinutes(p.Time, now),
			Success:         success,
		})
	}
	return trades
}

// BalanceTrades выбирает балансовые операции из истории сделок.
func BalanceTrades(deals []models.Deal) []models.BalanceTrade {
	out := make([]models.BalanceTrade, 0)
	for _, d := range deals {
		if !d.IsBalance() {
			continue
		}
		out = append(out, models.BalanceTrade{
			Ticket:  d.Ticket,
			Profit:  d.Profit,
			Comment: d.Comment,
			Time:    d.Time,
		})
	}
	return out
}
