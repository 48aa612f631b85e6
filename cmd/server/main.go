package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtsync/internal/account"
	"mtsync/internal/api"
	"mtsync/internal/config"
	"mtsync/internal/repository"
	"mtsync/internal/terminal"
	"mtsync/internal/websocket"
	"mtsync/pkg/ratelimit"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Sync()

	// Инициализация базы данных с таблицей terminals
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()

	log.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Пул терминалов поверх таблицы terminals
	terminalRepo := repository.NewTerminalRepository(db)
	pool := account.NewTerminalPool(terminalRepo, cfg.Sync.TerminalBasePath, log)

	// Фабрика клиентов terminal bridge
	factory := terminal.NewBridgeFactory(cfg.Bridge.BaseURL, terminal.HTTPClientConfig{
		ConnectTimeout: cfg.Bridge.ConnectTimeout,
		ReadTimeout:    cfg.Bridge.ReadTimeout,
		TotalTimeout:   cfg.Bridge.TotalTimeout,
	})

	// Сервис синхронизации счетов
	retryCfg := retry.Config{
		RetryLimit: cfg.Sync.RetryLimit,
		Delay:      cfg.Sync.RetryDelay,
	}
	syncService, err := account.NewService(pool, factory, account.ServiceConfig{
		Session: account.SessionConfig{
			ConnectTimeout: cfg.Sync.ConnectTimeout,
			SettleDelay:    cfg.Sync.SettleDelay,
			Retry:          retryCfg,
		},
		Retry:        retryCfg,
		HistoryYears: cfg.Sync.HistoryYears,
		ProfitPolicy: cfg.Sync.ProfitPolicy,
		PipPolicy:    cfg.Sync.PipPolicy,
	}, log)
	if err != nil {
		log.Fatal("failed to create sync service", utils.Err(err))
	}

	// WebSocket hub для real-time событий
	hub := websocket.NewHub()
	go hub.Run()
	syncService.SetWebSocketHub(hub)

	// Периодическая рассылка состояния пула подключенным клиентам
	poolStatusDone := make(chan struct{})
	go broadcastPoolStatus(terminalRepo, hub, log, poolStatusDone)

	// Token bucket для входящих запросов
	limiter := ratelimit.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		SyncService: syncService,
		Terminals:   terminalRepo,
		Hub:         hub,
		Logger:      log,
		APIKeyHash:  cfg.Security.APIKeyHash,
		Limiter:     limiter,
	})

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // sync держит соединение на все время работы с терминалом
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	close(poolStatusDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", utils.Err(err))
	}

	log.Info("server exited")
}

// broadcastPoolStatus периодически рассылает количество свободных терминалов
func broadcastPoolStatus(repo *repository.TerminalRepository, hub *websocket.Hub, log *utils.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if hub.ClientCount() == 0 {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			free, err := repo.CountFree(ctx)
			cancel()
			if err != nil {
				log.Warn("pool status broadcast skipped", utils.Err(err))
				continue
			}
			hub.BroadcastPoolStatus(free)
		}
	}
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
