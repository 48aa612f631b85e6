package api

import (
	"net/http"
	"net/http/pprof"

	"mtsync/internal/api/handlers"
	"mtsync/internal/api/middleware"
	"mtsync/internal/websocket"
	"mtsync/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	SyncService handlers.SyncService
	Terminals   handlers.TerminalCounter
	Hub         *websocket.Hub
	Logger      *utils.Logger

	// bcrypt-хеш API ключа, пустой отключает auth
	APIKeyHash string
	// token bucket для входящих sync-запросов, nil отключает троттлинг
	Limiter middleware.Limiter
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /account/
//	│   └── POST /sync - синхронизировать торговый счет
//	└── GET /health - состояние сервиса (без auth)
//
// /health - то же самое, для балансировщика
// /metrics - Prometheus метрики
// /ws/stream - WebSocket для real-time событий синхронизации
// /debug/pprof/* - профилировщик (за DebugAuth)
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. APIKeyAuth + RateLimit (только для /api/v1, кроме health)
func SetupRoutes(deps *Dependencies) *mux.Router {
	if deps == nil {
		deps = &Dependencies{}
	}
	log := deps.Logger
	if log == nil {
		log = utils.L()
	}

	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Health регистрируется до защищенного subrouter:
	// балансировщику и мониторингу ключ не выдается
	var clients handlers.ClientCounter
	if deps.Hub != nil {
		clients = deps.Hub
	}
	healthHandler := handlers.NewHealthHandler(deps.Terminals, clients, log)
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/api/v1/health", healthHandler.Health).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// WebSocket route
	if deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// API v1 routes (защищенные)
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.APIKeyAuth(deps.APIKeyHash))
	api.Use(middleware.RateLimit(deps.Limiter))

	if deps.SyncService != nil {
		accountHandler := handlers.NewAccountHandler(deps.SyncService, log)
		api.HandleFunc("/account/sync", accountHandler.SyncAccount).Methods("POST")
	}

	// Профилировщик за basic auth
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").HandlerFunc(pprof.Index)

	return router
}
