package handlers

import (
	"context"
	"net/http"
	"time"

	"mtsync/internal/account"
	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

// SyncService - минимальный интерфейс сервиса синхронизации для handler
type SyncService interface {
	Sync(ctx context.Context, req account.SyncRequest) *models.SyncResponse
}

// AccountHandler обрабатывает HTTP запросы синхронизации торгового счета.
//
// Endpoints:
// - POST /api/v1/account/sync - снять полный снимок счета через терминал из пула
//
// Контракт ответа:
// - 400 только для синтаксически некорректного запроса
// - все доменные исходы (нет свободных терминалов, неверные credentials,
//   счет недоступен) возвращаются как 200 с конвертом status=false,
//   чтобы клиент всегда разбирал один и тот же формат
type AccountHandler struct {
	syncService SyncService
	log         *utils.Logger
}

// NewAccountHandler создает новый AccountHandler с внедрением зависимостей
func NewAccountHandler(syncService SyncService, log *utils.Logger) *AccountHandler {
	return &AccountHandler{
		syncService: syncService,
		log:         log.WithComponent("account_handler"),
	}
}

// syncAccountRequest - тело POST /api/v1/account/sync.
// start_date и end_date задаются только парой, формат YYYY-MM-DD или RFC3339.
type syncAccountRequest struct {
	Login          int64  `json:"login"`
	Password       string `json:"password"`
	Server         string `json:"server"`
	TerminalNumber int    `json:"terminal_number,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
}

// SyncAccount снимает снимок торгового счета.
//
// POST /api/v1/account/sync
//
// Request:
//
//	{
//	  "login": 5001234,
//	  "password": "secret",
//	  "server": "MetaQuotes-Demo",
//	  "terminal_number": 0,
//	  "start_date": "2025-01-01",
//	  "end_date": "2025-06-30"
//	}
//
// Response 200 OK (успех):
//
//	{"status": true, "message": "account fetched successfully", "data": {...}}
//
// Response 200 OK (доменная ошибка):
//
//	{"status": false, "message": "no free terminals", "data": null}
//
// Response 400 Bad Request:
//
//	{"status": false, "message": "invalid request", "data": null}
func (h *AccountHandler) SyncAccount(w http.ResponseWriter, r *http.Request) {
	if h.syncService == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "sync service not initialized"})
		return
	}

	var body syncAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Warn("malformed sync request body", utils.Err(err))
		writeInvalidRequest(w)
		return
	}

	if err := utils.ValidateLogin(body.Login); err != nil {
		writeInvalidRequest(w)
		return
	}
	if err := utils.ValidatePassword(body.Password); err != nil {
		writeInvalidRequest(w)
		return
	}
	if err := utils.ValidateServer(body.Server); err != nil {
		writeInvalidRequest(w)
		return
	}
	if err := utils.ValidateTerminalNumber(body.TerminalNumber); err != nil {
		writeInvalidRequest(w)
		return
	}

	startDate, endDate, ok := parseDateRange(body.StartDate, body.EndDate)
	if !ok {
		writeInvalidRequest(w)
		return
	}

	req := account.SyncRequest{
		Login:          body.Login,
		Password:       body.Password,
		Server:         body.Server,
		TerminalNumber: body.TerminalNumber,
		StartDate:      startDate,
		EndDate:        endDate,
	}

	resp := h.syncService.Sync(r.Context(), req)

	// Конверт сам несет признак успеха, HTTP статус всегда 200
	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange разбирает опциональное окно истории.
// Обе даты пустые - окно по умолчанию (нулевые time.Time).
// Валидна только полная пара с start <= end.
func parseDateRange(start, end string) (time.Time, time.Time, bool) {
	if start == "" && end == "" {
		return time.Time{}, time.Time{}, true
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, false
	}

	from, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
