package terminal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BridgeClient - HTTP реализация порта Client поверх локального
// terminal bridge: процесса-шлюза, в котором живет нативный API терминала.
// Один bridge обслуживает весь парк; конкретный терминал выбирается полем
// path в запросе initialize (portable mode).
type BridgeClient struct {
	baseURL      string
	terminalPath string
	httpClient   *http.Client
}

var _ Client = (*BridgeClient)(nil)

// NewBridgeClient создает клиента bridge, привязанного к пути терминала
func NewBridgeClient(baseURL, terminalPath string, httpClient *http.Client) *BridgeClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultHTTPClientConfig())
	}
	return &BridgeClient{
		baseURL:      baseURL,
		terminalPath: terminalPath,
		httpClient:   httpClient,
	}
}

// NewBridgeFactory возвращает фабрику клиентов для sync-сервиса.
// HTTP клиент с connection pool общий для всех создаваемых клиентов.
func NewBridgeFactory(baseURL string, cfg HTTPClientConfig) ClientFactory {
	shared := NewHTTPClient(cfg)
	return func(terminalPath string) Client {
		return NewBridgeClient(baseURL, terminalPath, shared)
	}
}

// ============ Wire-форматы bridge ============

type initializePayload struct {
	Path      string `json:"path"`
	Login     int64  `json:"login"`
	Password  string `json:"password"`
	Server    string `json:"server"`
	TimeoutMs int64  `json:"timeout"`
	Portable  bool   `json:"portable"`
}

type initializeResult struct {
	Success bool `json:"success"`
}

type lastErrorResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResult struct {
	AccountInfo *models.AccountInfo `json:"account_info"`
}

type positionPayload struct {
	Ticket       int64   `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Type         int     `json:"type"`
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	PriceCurrent float64 `json:"price_current"`
	Profit       float64 `json:"profit"`
	Swap         float64 `json:"swap"`
	StopLoss     float64 `json:"sl"`
	TakeProfit   float64 `json:"tp"`
	Magic        int64   `json:"magic"`
	Comment      string  `json:"comment"`
	Time         int64   `json:"time"` // unix seconds
}

type positionsResult struct {
	Positions []positionPayload `json:"positions"`
}

type dealPayload struct {
	Ticket     int64   `json:"ticket"`
	Order      int64   `json:"order"`
	PositionID int64   `json:"position_id"`
	Type       int     `json:"type"`
	Entry      int     `json:"entry"`
	Reason     int     `json:"reason"`
	Magic      int64   `json:"magic"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	Profit     float64 `json:"profit"`
	Fee        float64 `json:"fee"`
	Symbol     string  `json:"symbol"`
	Comment    string  `json:"comment"`
	Time       int64   `json:"time"`     // unix seconds
	TimeMsc    int64   `json:"time_msc"` // unix milliseconds
}

type historyDealsResult struct {
	Deals []dealPayload `json:"deals"`
}

type symbolInfoResult struct {
	SymbolInfo *models.SymbolInfo `json:"symbol_info"`
}

// ============ Client implementation ============

// Initialize открывает сессию терминала через bridge
func (c *BridgeClient) Initialize(ctx context.Context, req InitRequest) (bool, error) {
	payload := initializePayload{
		Path:      c.terminalPath,
		Login:     req.Login,
		Password:  req.Password,
		Server:    req.Server,
		TimeoutMs: req.Timeout.Milliseconds(),
		Portable:  req.Portable,
	}
	if req.Path != "" {
		payload.Path = req.Path
	}

	var result initializeResult
	if err := c.post(ctx, "/initialize", payload, &result); err != nil {
		return false, err
	}
	return result.Success, nil
}

// LastError возвращает последнюю ошибку терминала.
// Ошибки транспорта здесь глушатся: LastError вызывается уже на пути
// диагностики отказа, и пустая сигнатура классифицируется как generic-провал.
func (c *BridgeClient) LastError(ctx context.Context) LastError {
	var result lastErrorResult
	if err := c.get(ctx, "/last_error", nil, &result); err != nil {
		return LastError{}
	}
	return LastError{Code: result.Code, Message: result.Message}
}

// AccountInfo читает снимок счета; nil без ошибки = терминал еще не готов
func (c *BridgeClient) AccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	var result accountInfoResult
	if err := c.get(ctx, "/account_info", nil, &result); err != nil {
		return nil, err
	}
	return result.AccountInfo, nil
}

// Positions читает открытые позиции
func (c *BridgeClient) Positions(ctx context.Context) ([]models.Position, error) {
	var result positionsResult
	if err := c.get(ctx, "/positions", nil, &result); err != nil {
		return nil, err
	}

	positions := make([]models.Position, 0, len(result.Positions))
	for _, p := range result.Positions {
		positions = append(positions, models.Position{
			Ticket:       p.Ticket,
			Symbol:       p.Symbol,
			Type:         models.PositionType(p.Type),
			Volume:       p.Volume,
			PriceOpen:    p.PriceOpen,
			PriceCurrent: p.PriceCurrent,
			Profit:       p.Profit,
			Swap:         p.Swap,
			StopLoss:     p.StopLoss,
			TakeProfit:   p.TakeProfit,
			Magic:        p.Magic,
			Comment:      p.Comment,
			Time:         utils.FromUnix(p.Time),
		})
	}
	return positions, nil
}

// HistoryDeals читает сделки за окно [from, to)
func (c *BridgeClient) HistoryDeals(ctx context.Context, from, to time.Time) ([]models.Deal, error) {
	params := url.Values{}
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var result historyDealsResult
	if err := c.get(ctx, "/history_deals", params, &result); err != nil {
		return nil, err
	}

	deals := make([]models.Deal, 0, len(result.Deals))
	for _, d := range result.Deals {
		deals = append(deals, models.Deal{
			Ticket:     d.Ticket,
			Order:      d.Order,
			PositionID: d.PositionID,
			Type:       models.DealType(d.Type),
			Entry:      models.DealEntry(d.Entry),
			Reason:     models.DealReason(d.Reason),
			Magic:      d.Magic,
			Volume:     d.Volume,
			Price:      d.Price,
			Commission: d.Commission,
			Swap:       d.Swap,
			Profit:     d.Profit,
			Fee:        d.Fee,
			Symbol:     d.Symbol,
			Comment:    d.Comment,
			Time:       utils.FromUnix(d.Time),
			TimeMsc:    d.TimeMsc,
		})
	}
	return deals, nil
}

// SymbolInfo читает метаданные инструмента; nil без ошибки = символ не найден
func (c *BridgeClient) SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var result symbolInfoResult
	if err := c.get(ctx, "/symbol_info", params, &result); err != nil {
		return nil, err
	}
	return result.SymbolInfo, nil
}

// Shutdown закрывает сессию терминала
func (c *BridgeClient) Shutdown(ctx context.Context) error {
	return c.post(ctx, "/shutdown", struct{}{}, &struct{}{})
}

// ============ HTTP helpers ============

func (c *BridgeClient) post(ctx context.Context, endpoint string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bridge %s: marshal request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bridge %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, result)
}

func (c *BridgeClient) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("bridge %s: build request: %w", endpoint, err)
	}

	return c.do(req, endpoint, result)
}

func (c *BridgeClient) do(req *http.Request, endpoint string, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bridge %s: read response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge %s: unexpected status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("bridge %s: decode response: %w", endpoint, err)
	}
	return nil
}
