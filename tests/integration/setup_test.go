//go:build integration

// Package integration contains integration tests for the account sync service.
//
// These tests verify the correct interaction between components:
// - API tests: full HTTP request cycle against a fake terminal bridge
// - WebSocket tests: connection, real-time sync events
//
// Integration tests use build tag "integration" to separate from unit tests.
// Run with: go test -tags=integration ./tests/integration/...
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mtsync/internal/account"
	"mtsync/internal/api"
	"mtsync/internal/repository"
	"mtsync/internal/terminal"
	"mtsync/internal/websocket"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"
)

// fakeBridge эмулирует terminal bridge: хранит настраиваемые фикстуры
// и отвечает на те же endpoints, что и реальный шлюз
type fakeBridge struct {
	mu sync.Mutex

	authFail    bool
	accountInfo map[string]interface{}
	positions   []map[string]interface{}
	deals       []map[string]interface{}

	initCalls     int
	shutdownCalls int
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		accountInfo: map[string]interface{}{
			"login":    int64(5001234),
			"balance":  1050.0,
			"credit":   0.0,
			"profit":   0.0,
			"equity":   1050.0,
			"currency": "USD",
			"server":   "MetaQuotes-Demo",
			"name":     "Integration Test",
		},
	}
}

func (b *fakeBridge) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/initialize", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.initCalls++
		success := !b.authFail
		b.mu.Unlock()
		writeBridgeJSON(w, map[string]interface{}{"success": success})
	})

	mux.HandleFunc("/last_error", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.authFail {
			writeBridgeJSON(w, map[string]interface{}{"code": -6, "message": "Terminal: Authorization failed"})
			return
		}
		writeBridgeJSON(w, map[string]interface{}{"code": 1, "message": "Success"})
	})

	mux.HandleFunc("/account_info", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeBridgeJSON(w, map[string]interface{}{"account_info": b.accountInfo})
	})

	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeBridgeJSON(w, map[string]interface{}{"positions": b.positions})
	})

	mux.HandleFunc("/history_deals", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeBridgeJSON(w, map[string]interface{}{"deals": b.deals})
	})

	mux.HandleFunc("/symbol_info", func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		writeBridgeJSON(w, map[string]interface{}{
			"symbol_info": map[string]interface{}{
				"name":          symbol,
				"contract_size": 100000.0,
				"digits":        5,
			},
		})
	})

	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.shutdownCalls++
		b.mu.Unlock()
		writeBridgeJSON(w, map[string]interface{}{})
	})

	return mux
}

func writeBridgeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

// TestServer инкапсулирует все компоненты для интеграционного теста
type TestServer struct {
	Server  *httptest.Server
	Bridge  *fakeBridge
	Hub     *websocket.Hub
	DBMock  sqlmock.Sqlmock
	Cleanup func()
}

// newTestServer собирает полный стек: sqlmock вместо Postgres,
// fakeBridge вместо терминального шлюза, остальное настоящее
func newTestServer(t *testing.T) *TestServer {
	t.Helper()

	log := utils.InitLogger(utils.LogConfig{Level: "fatal", Output: "/dev/null"})
	utils.SetGlobalLogger(log)

	db, dbMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	bridge := newFakeBridge()
	bridgeServer := httptest.NewServer(bridge.handler())

	terminalRepo := repository.NewTerminalRepository(db)
	pool := account.NewTerminalPool(terminalRepo, `C:\MQ45\Terminals`, log)

	factory := terminal.NewBridgeFactory(bridgeServer.URL, terminal.HTTPClientConfig{
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    5 * time.Second,
		TotalTimeout:   10 * time.Second,
	})

	retryCfg := retry.Config{RetryLimit: 3}
	syncService, err := account.NewService(pool, factory, account.ServiceConfig{
		Session: account.SessionConfig{
			ConnectTimeout: 2 * time.Second,
			SettleDelay:    0,
			Retry:          retryCfg,
		},
		Retry:        retryCfg,
		HistoryYears: 1,
		ProfitPolicy: "additive",
		PipPolicy:    "digits",
	}, log)
	if err != nil {
		t.Fatalf("failed to create sync service: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	syncService.SetWebSocketHub(hub)

	router := api.SetupRoutes(&api.Dependencies{
		SyncService: syncService,
		Terminals:   terminalRepo,
		Hub:         hub,
		Logger:      log,
	})

	server := httptest.NewServer(router)

	return &TestServer{
		Server: server,
		Bridge: bridge,
		Hub:    hub,
		DBMock: dbMock,
		Cleanup: func() {
			server.Close()
			bridgeServer.Close()
			db.Close()
		},
	}
}

// expectAllocate настраивает sqlmock на успешную аренду терминала
func (ts *TestServer) expectAllocate(id, path string) {
	rows := sqlmock.NewRows([]string{"id", "path", "in_use"}).AddRow(id, path, true)
	ts.DBMock.ExpectQuery("UPDATE terminals").WillReturnRows(rows)
}

// expectRelease настраивает sqlmock на успешный возврат терминала в пул
func (ts *TestServer) expectRelease() {
	ts.DBMock.ExpectExec("UPDATE terminals").WillReturnResult(sqlmock.NewResult(0, 1))
}

func sqlmockEmptyTerminalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "path", "in_use"})
}

func sqlmockCountRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// завершенный BUY трейд: открытие 1.10000, закрытие 1.10500, плюс депозит
func profitableDealFixture() []map[string]interface{} {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Unix()
	return []map[string]interface{}{
		{
			"ticket": int64(1), "position_id": int64(0), "type": 2, "entry": 0,
			"profit": 1000.0, "time": base - 3600, "comment": "deposit",
		},
		{
			"ticket": int64(2), "position_id": int64(101), "type": 0, "entry": 0,
			"symbol": "EURUSD", "volume": 1.0, "price": 1.10000,
			"time": base,
		},
		{
			"ticket": int64(3), "position_id": int64(101), "type": 1, "entry": 1,
			"symbol": "EURUSD", "volume": 1.0, "price": 1.10500,
			"profit": 50.0, "time": base + 1800,
		},
	}
}
