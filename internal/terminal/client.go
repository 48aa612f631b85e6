package terminal

import (
	"context"
	"strings"
	"time"

	"mtsync/internal/models"
)

// Client определяет порт к backend'у терминала.
//
// Сессия и sync-сервис работают только через этот интерфейс: реализация
// внедряется снаружи (HTTP bridge в production, моки в тестах), чтобы
// агрегатор и пул тестировались без живого терминала.
//
// Контракт по "пустым" ответам: сразу после initialize терминал какое-то
// время отдает пустые результаты без ошибки. Реализация обязана возвращать
// (nil, nil) / (false, nil) в этом случае - различение "пусто" и "сломано"
// делает retry-обертка выше.
type Client interface {
	// Initialize открывает авторизованную сессию против терминала по пути path.
	// false без ошибки означает отказ терминала; причину уточняет LastError.
	Initialize(ctx context.Context, req InitRequest) (bool, error)

	// LastError возвращает последнюю ошибку терминала (best-effort)
	LastError(ctx context.Context) LastError

	// AccountInfo читает снимок торгового счета
	AccountInfo(ctx context.Context) (*models.AccountInfo, error)

	// Positions читает открытые позиции
	Positions(ctx context.Context) ([]models.Position, error)

	// HistoryDeals читает сделки за окно [from, to) - конец исключается
	HistoryDeals(ctx context.Context, from, to time.Time) ([]models.Deal, error)

	// SymbolInfo читает метаданные инструмента
	SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error)

	// Shutdown закрывает сессию терминала
	Shutdown(ctx context.Context) error
}

// ClientFactory создает клиента, привязанного к пути арендованного терминала
type ClientFactory func(terminalPath string) Client

// InitRequest - параметры открытия сессии
type InitRequest struct {
	Path     string        `json:"path"`
	Login    int64         `json:"login"`
	Password string        `json:"password"`
	Server   string        `json:"server"`
	Timeout  time.Duration `json:"-"`
	Portable bool          `json:"portable"`
}

// LastError - сигнатура последней ошибки терминала
type LastError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Сигнатура отказа авторизации: код -6 и сообщение
// "Terminal: Authorization failed"
const authFailedCode = -6

// IsAuthorizationFailure распознает отказ авторизации по сигнатуре ошибки.
// Все остальные сигнатуры трактуются как generic-провал соединения.
func (e LastError) IsAuthorizationFailure() bool {
	return e.Code == authFailedCode && strings.Contains(e.Message, "Authorization failed")
}
