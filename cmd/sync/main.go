// Команда sync снимает снимок одного торгового счета и печатает
// JSON-конверт в stdout. Формат вывода совпадает с ответом
// POST /api/v1/account/sync, все логи уходят в stderr.
//
// Использование:
//
//	sync <login> <password> <server> [terminal_number] [start_date] [end_date]
//
// Даты в формате YYYY-MM-DD, задаются только парой.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"

	"mtsync/internal/account"
	"mtsync/internal/config"
	"mtsync/internal/models"
	"mtsync/internal/repository"
	"mtsync/internal/terminal"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	req, ok := parseArgs(args)
	if !ok {
		printEnvelope(models.Failure(models.MsgInvalidRequest))
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// stdout зарезервирован под конверт, логи только в stderr
	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	})
	defer log.Sync()

	// БД нужна только при аренде из пула, явный номер терминала обходит пул
	var repo account.TerminalAllocator
	if req.TerminalNumber == 0 {
		db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to open database", utils.Err(err))
			printEnvelope(models.Failure(models.MsgNoFreeTerminals))
			return 0
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Error("failed to ping database", utils.Err(err))
			printEnvelope(models.Failure(models.MsgNoFreeTerminals))
			return 0
		}

		repo = repository.NewTerminalRepository(db)
	}

	pool := account.NewTerminalPool(repo, cfg.Sync.TerminalBasePath, log)

	factory := terminal.NewBridgeFactory(cfg.Bridge.BaseURL, terminal.HTTPClientConfig{
		ConnectTimeout: cfg.Bridge.ConnectTimeout,
		ReadTimeout:    cfg.Bridge.ReadTimeout,
		TotalTimeout:   cfg.Bridge.TotalTimeout,
	})

	retryCfg := retry.Config{
		RetryLimit: cfg.Sync.RetryLimit,
		Delay:      cfg.Sync.RetryDelay,
	}
	svc, err := account.NewService(pool, factory, account.ServiceConfig{
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
		fmt.Fprintf(os.Stderr, "failed to create sync service: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Bridge.TotalTimeout+time.Minute)
	defer cancel()

	printEnvelope(svc.Sync(ctx, *req))
	return 0
}

// parseArgs разбирает позиционные аргументы в запрос синхронизации
func parseArgs(args []string) (*account.SyncRequest, bool) {
	if len(args) < 3 || len(args) > 6 {
		return nil, false
	}

	login, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, false
	}

	req := account.SyncRequest{
		Login:    login,
		Password: args[1],
		Server:   args[2],
	}

	if len(args) >= 4 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return nil, false
		}
		req.TerminalNumber = n
	}

	// Даты только парой
	if len(args) == 5 {
		return nil, false
	}
	if len(args) == 6 {
		from, err := time.Parse("2006-01-02", args[4])
		if err != nil {
			return nil, false
		}
		to, err := time.Parse("2006-01-02", args[5])
		if err != nil {
			return nil, false
		}
		if to.Before(from) {
			return nil, false
		}
		req.StartDate = from
		req.EndDate = to
	}

	if utils.ValidateLogin(req.Login) != nil ||
		utils.ValidatePassword(req.Password) != nil ||
		utils.ValidateServer(req.Server) != nil ||
		utils.ValidateTerminalNumber(req.TerminalNumber) != nil {
		return nil, false
	}

	return &req, true
}

// printEnvelope печатает ровно один JSON-конверт в stdout
func printEnvelope(resp *models.SyncResponse) {
	out, err := json.Marshal(resp)
	if err != nil {
		fmt.Println(`{"status":false,"message":"invalid request","data":null}`)
		return
	}
	fmt.Println(string(out))
}
