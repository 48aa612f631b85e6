package account

import (
	"context"
	"errors"
	"time"

	"mtsync/internal/models"
	"mtsync/internal/repository"
	"mtsync/internal/terminal"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"
)

// Бюджет возврата ресурсов после завершения (или обрыва) запроса
const teardownTimeout = 10 * time.Second

// SyncBroadcaster - интерфейс для отправки событий синхронизации через WebSocket
type SyncBroadcaster interface {
	BroadcastSyncStarted(login int64, terminalID string)
	BroadcastSyncFinished(login int64, result string)
}

// SyncRequest - один запрос синхронизации счёта.
//
// TerminalNumber > 0 выбирает терминал детерминированно, минуя пул.
// Нулевые StartDate/EndDate означают окно по умолчанию
// [now - HistoryYears; now), конец окна исключается.
type SyncRequest struct {
	Login          int64
	Password       string
	Server         string
	TerminalNumber int
	StartDate      time.Time
	EndDate        time.Time
}

// ServiceConfig - параметры sync-сервиса.
type ServiceConfig struct {
	Session      SessionConfig
	Retry        retry.Config
	HistoryYears int
	ProfitPolicy string
	PipPolicy    string
}

// Service оркестрирует полный цикл синхронизации счёта:
// acquire → connect → account_info → positions → history →
// aggregate → summarize → close → release.
//
// Цикл строго последовательный: арендованный терминал
// однопользовательский, параллельных чтений внутри сессии нет.
// Сервис гарантирует ровно один Release на Acquire и ровно один
// Close на Connect на каждом пути выхода, включая сбои.
type Service struct {
	pool    *TerminalPool
	factory terminal.ClientFactory
	cfg     ServiceConfig
	profit  ProfitPolicy
	pips    PipPolicy
	wsHub   SyncBroadcaster
	log     *utils.Logger
	now     func() time.Time
}

// NewService создаёт sync-сервис.
// Возвращает ошибку при неизвестном имени стратегии в конфигурации.
func NewService(pool *TerminalPool, factory terminal.ClientFactory, cfg ServiceConfig, log *utils.Logger) (*Service, error) {
	profit, err := ProfitPolicyByName(cfg.ProfitPolicy)
	if err != nil {
		return nil, err
	}
	pips, err := PipPolicyByName(cfg.PipPolicy)
	if err != nil {
		return nil, err
	}
	return &Service{
		pool:    pool,
		factory: factory,
		cfg:     cfg,
		profit:  profit,
		pips:    pips,
		log:     log.WithComponent("sync"),
		now:     time.Now,
	}, nil
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast событий.
//
// Вызывается после инициализации Hub в main.go:
//
//	wsHub := websocket.NewHub()
//	syncService.SetWebSocketHub(wsHub)
func (s *Service) SetWebSocketHub(hub SyncBroadcaster) {
	s.wsHub = hub
}

// Sync выполняет синхронизацию счёта и возвращает конверт ответа.
//
// Ожидаемые отказы (нет свободных терминалов, неверные учётные
// данные, терминал не инициализировался, пустой счёт) приходят как
// {status:false, message} и никогда как ошибка или паника.
func (s *Service) Sync(ctx context.Context, req SyncRequest) *models.SyncResponse {
	started := s.now()
	ActiveSyncs.Inc()
	defer func() {
		ActiveSyncs.Dec()
		SyncDuration.Observe(s.now().Sub(started).Seconds())
	}()

	log := s.log.WithLogin(req.Login)

	lease, err := s.pool.Acquire(ctx, req.TerminalNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNoFreeTerminals) {
			log.Warn("no free terminals")
			return s.finish(req.Login, "no_free_terminals", models.Failure(models.MsgNoFreeTerminals))
		}
		log.Error("terminal acquire failed", utils.Err(err))
		return s.finish(req.Login, "error", models.Failure(models.MsgNoFreeTerminals))
	}
	// Ровно один возврат терминала на каждую выдачу. Teardown идёт на
	// отвязанном контексте: отменённый или истёкший запрос не должен
	// оставить терминал помеченным in_use.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		s.pool.Release(cleanupCtx, lease)
	}()

	if s.wsHub != nil {
		s.wsHub.BroadcastSyncStarted(req.Login, lease.Terminal.ID)
	}

	client := s.factory(lease.Terminal.Path)
	session := NewSession(client, s.cfg.Session, log.WithTerminal(lease.Terminal.ID))
	// Ровно один shutdown на каждую попытку подключения, тоже на
	// отвязанном контексте
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		session.Close(cleanupCtx)
	}()

	if err := session.Connect(ctx, lease.Terminal.Path, req.Login, req.Password, req.Server); err != nil {
		switch {
		case errors.Is(err, ErrAuthenticationFailed):
			return s.finish(req.Login, "auth_failed", models.Failure(models.MsgInvalidCredentials))
		default:
			log.Warn("terminal connect failed", utils.Err(err))
			return s.finish(req.Login, "connect_failed", models.Failure(models.MsgInitializeFailed))
		}
	}

	snapshot, err := s.fetchAndAggregate(ctx, client, req, log)
	if err != nil {
		if errors.Is(err, ErrAccountUnavailable) {
			log.Warn("account data unavailable after retries")
			return s.finish(req.Login, "account_unavailable", models.Failure(models.MsgAccountUnavailable))
		}
		log.Error("account sync failed", utils.Err(err))
		return s.finish(req.Login, "error", models.Failure(models.MsgAccountUnavailable))
	}

	log.Info("account synced",
		utils.Int("open_trades", len(snapshot.OpenTrades)),
		utils.Int("closed_trades", len(snapshot.ClosedTrades)),
	)
	return s.finish(req.Login, "success", models.Success(snapshot))
}

// finish записывает метрику результата и рассылает событие завершения.
func (s *Service) finish(login int64, result string, resp *models.SyncResponse) *models.SyncResponse {
	SyncsTotal.WithLabelValues(result).Inc()
	if s.wsHub != nil {
		s.wsHub.BroadcastSyncFinished(login, result)
	}
	return resp
}

// fetchAndAggregate выполняет все чтения подключенной сессии и
// сводит их в снимок счёта.
func (s *Service) fetchAndAggregate(ctx context.Context, client terminal.Client, req SyncRequest, log *utils.Logger) (*models.AccountSnapshot, error) {
	info, err := s.fetchAccountInfo(ctx, client)
	if err != nil {
		if retry.IsEmpty(err) {
			return nil, ErrAccountUnavailable
		}
		return nil, err
	}

	positions, err := s.fetchPositions(ctx, client)
	if err != nil && !retry.IsEmpty(err) {
		return nil, err
	}

	from, to := s.historyWindow(req)
	deals, err := s.fetchHistoryDeals(ctx, client, from, to)
	if err != nil && !retry.IsEmpty(err) {
		return nil, err
	}

	symbols := NewSymbolCache(client, s.cfg.Retry, log)
	aggregator := NewAggregator(symbols, s.pips)

	open := aggregator.OpenTrades(ctx, positions)
	closed := aggregator.ClosedTrades(ctx, deals)
	balance := BalanceTrades(deals)

	return NewSummarizer(s.profit).Summarize(*info, open, closed, balance), nil
}

// historyWindow возвращает окно выборки истории: даты запроса или
// окно по умолчанию. Конец окна всегда исключается.
func (s *Service) historyWindow(req SyncRequest) (time.Time, time.Time) {
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() {
		return req.StartDate, req.EndDate
	}
	return utils.HistoryWindow(s.now(), s.cfg.HistoryYears)
}

// Чтения с повторами. Пустые открытые позиции и пустая история -
// нормальные состояния счёта: retry.ErrEmpty после всех попыток
// схлопывается в пустой список. Пустой счёт пустым быть не может.

func (s *Service) fetchAccountInfo(ctx context.Context, client terminal.Client) (*models.AccountInfo, error) {
	cfg := s.retryConfigFor("account_info")
	return retry.Fetch(ctx, client.AccountInfo, retry.NilPointer[models.AccountInfo], cfg)
}

func (s *Service) fetchPositions(ctx context.Context, client terminal.Client) ([]models.Position, error) {
	cfg := s.retryConfigFor("positions")
	return retry.Fetch(ctx, client.Positions, retry.EmptySlice[models.Position], cfg)
}

func (s *Service) fetchHistoryDeals(ctx context.Context, client terminal.Client, from, to time.Time) ([]models.Deal, error) {
	cfg := s.retryConfigFor("history_deals")
	return retry.Fetch(ctx,
		func(ctx context.Context) ([]models.Deal, error) {
			return client.HistoryDeals(ctx, from, to)
		},
		retry.EmptySlice[models.Deal],
		cfg,
	)
}

func (s *Service) retryConfigFor(operation string) retry.Config {
	cfg := s.cfg.Retry
	cfg.OnAttempt = func(attempt int) {
		RetryAttempts.WithLabelValues(operation).Inc()
	}
	return cfg
}
