package handlers

import (
	"context"
	"net/http"
	"time"

	"mtsync/pkg/utils"
)

// TerminalCounter отдает количество свободных терминалов в пуле
type TerminalCounter interface {
	CountFree(ctx context.Context) (int, error)
}

// ClientCounter отдает количество подключенных WebSocket клиентов
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler обрабатывает запросы проверки состояния сервиса.
//
// Endpoints:
// - GET /api/v1/health (и GET /health для балансировщика)
type HealthHandler struct {
	terminals TerminalCounter
	clients   ClientCounter
	started   time.Time
	log       *utils.Logger
}

// NewHealthHandler создает новый HealthHandler
func NewHealthHandler(terminals TerminalCounter, clients ClientCounter, log *utils.Logger) *HealthHandler {
	return &HealthHandler{
		terminals: terminals,
		clients:   clients,
		started:   time.Now(),
		log:       log.WithComponent("health_handler"),
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	FreeTerminals *int   `json:"free_terminals,omitempty"`
	WSClients     *int   `json:"ws_clients,omitempty"`
}

// Health возвращает состояние сервиса.
//
// Response 200 OK:
//
//	{"status": "ok", "uptime_seconds": 3600, "free_terminals": 4, "ws_clients": 2}
//
// Недоступность БД не роняет health в 5xx: сервис жив, статус "degraded"
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if h.terminals != nil {
		free, err := h.terminals.CountFree(r.Context())
		if err != nil {
			h.log.Warn("free terminal count unavailable", utils.Err(err))
			resp.Status = "degraded"
		} else {
			resp.FreeTerminals = &free
		}
	}

	if h.clients != nil {
		n := h.clients.ClientCount()
		resp.WSClients = &n
	}

	writeJSON(w, http.StatusOK, resp)
}
