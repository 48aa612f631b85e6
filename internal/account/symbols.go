package account

import (
	"context"

	"mtsync/internal/models"
	"mtsync/internal/terminal"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"
)

// SymbolCache мемоизирует параметры символов в пределах одной
// синхронизации. Кэш не разделяется между запросами: параметры
// символа могут отличаться между серверами брокеров.
//
// Любой сбой чтения (ошибка или паника клиента) гасится на этой
// границе, логируется один раз и деградирует к параметрам по
// умолчанию. Дальше границы кэша паника не распространяется.
type SymbolCache struct {
	client   terminal.Client
	retryCfg retry.Config
	log      *utils.Logger

	cache map[string]models.SymbolInfo
}

// NewSymbolCache создаёт кэш для одной синхронизации.
func NewSymbolCache(client terminal.Client, retryCfg retry.Config, log *utils.Logger) *SymbolCache {
	return &SymbolCache{
		client:   client,
		retryCfg: retryCfg,
		log:      log.WithComponent("symbols"),
		cache:    make(map[string]models.SymbolInfo),
	}
}

// Get возвращает параметры символа, обращаясь к терминалу не более
// одного раза (с повторами) за символ.
func (c *SymbolCache) Get(ctx context.Context, symbol string) models.SymbolInfo {
	if info, ok := c.cache[symbol]; ok {
		return info
	}

	info := c.lookup(ctx, symbol)
	c.cache[symbol] = info
	return info
}

// lookup выполняет защищённое чтение параметров символа.
func (c *SymbolCache) lookup(ctx context.Context, symbol string) (info models.SymbolInfo) {
	info = models.DefaultSymbolInfo(symbol)

	defer func() {
		if r := recover(); r != nil {
			SymbolLookupFallbacks.Inc()
			c.log.Warn("symbol lookup panicked, using defaults",
				utils.Symbol(symbol),
				utils.Any("panic", r),
			)
			info = models.DefaultSymbolInfo(symbol)
		}
	}()

	cfg := c.retryCfg
	cfg.OnAttempt = func(attempt int) {
		RetryAttempts.WithLabelValues("symbol_info").Inc()
	}

	fetched, err := retry.Fetch(ctx,
		func(ctx context.Context) (*models.SymbolInfo, error) {
			return c.client.SymbolInfo(ctx, symbol)
		},
		retry.NilPointer[models.SymbolInfo],
		cfg,
	)
	if err != nil {
		SymbolLookupFallbacks.Inc()
		c.log.Warn("symbol lookup failed, using defaults",
			utils.Symbol(symbol),
			utils.Err(err),
		)
		return models.DefaultSymbolInfo(symbol)
	}

	return *fetched
}
