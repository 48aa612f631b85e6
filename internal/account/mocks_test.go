package account

import (
	"context"
	"time"

	"mtsync/internal/models"
	"mtsync/internal/repository"
	"mtsync/internal/terminal"
	"mtsync/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "error", Output: "/dev/null"})
}

// ============ Mock TerminalAllocator ============

type MockAllocator struct {
	terminal *models.Terminal

	allocateErr error
	releaseErr  error

	allocateCalls  int
	releaseCalls   int
	releasedIDs    []string
	released       map[string]bool
	releaseCtxErrs []error
}

func NewMockAllocator() *MockAllocator {
	return &MockAllocator{
		terminal: &models.Terminal{ID: "T1", Path: `C:\MQ45\Terminals\T1\terminal64.exe`, InUse: true},
		released: make(map[string]bool),
	}
}

func (m *MockAllocator) AllocateFree(ctx context.Context) (*models.Terminal, error) {
	m.allocateCalls++
	if m.allocateErr != nil {
		return nil, m.allocateErr
	}
	if m.terminal == nil {
		return nil, repository.ErrNoFreeTerminals
	}
	return m.terminal, nil
}

func (m *MockAllocator) Release(ctx context.Context, id string) (bool, error) {
	m.releaseCalls++
	m.releasedIDs = append(m.releasedIDs, id)
	m.releaseCtxErrs = append(m.releaseCtxErrs, ctx.Err())
	if m.releaseErr != nil {
		return false, m.releaseErr
	}
	// Повторный возврат того же терминала сообщает false
	if m.released[id] {
		return false, nil
	}
	m.released[id] = true
	return true, nil
}

// ============ Mock terminal.Client ============

type MockClient struct {
	// Сценарий инициализации: initFailures попыток возвращают false,
	// затем true. initHardErr прерывает сразу.
	initFailures int
	initHardErr  error
	lastError    terminal.LastError

	accountInfo *models.AccountInfo
	// accountEmptyFirst - столько первых чтений счета отдают nil
	accountEmptyFirst int
	// onAccountInfo вызывается перед каждым чтением счета
	onAccountInfo func()

	positions []models.Position
	deals     []models.Deal
	symbols   map[string]*models.SymbolInfo
	symbolErr error

	initCalls      int
	accountCalls   int
	shutdownCalls  int
	shutdownCtxErr error
	historyFrom    time.Time
	historyTo      time.Time
	lastInitReq    terminal.InitRequest
}

func NewMockClient() *MockClient {
	return &MockClient{
		accountInfo: &models.AccountInfo{
			Login:    5001234,
			Balance:  1000,
			Credit:   0,
			Profit:   50,
			Equity:   1050,
			Currency: "USD",
			Server:   "Broker-Demo",
		},
		symbols: make(map[string]*models.SymbolInfo),
	}
}

var _ terminal.Client = (*MockClient)(nil)

func (m *MockClient) Initialize(ctx context.Context, req terminal.InitRequest) (bool, error) {
	m.initCalls++
	m.lastInitReq = req
	if m.initHardErr != nil {
		return false, m.initHardErr
	}
	if m.initCalls <= m.initFailures {
		return false, nil
	}
	return true, nil
}

func (m *MockClient) LastError(ctx context.Context) terminal.LastError {
	return m.lastError
}

func (m *MockClient) AccountInfo(ctx context.Context) (*models.AccountInfo, error) {
	m.accountCalls++
	if m.onAccountInfo != nil {
		m.onAccountInfo()
	}
	if m.accountCalls <= m.accountEmptyFirst {
		return nil, nil
	}
	return m.accountInfo, nil
}

func (m *MockClient) Positions(ctx context.Context) ([]models.Position, error) {
	return m.positions, nil
}

func (m *MockClient) HistoryDeals(ctx context.Context, from, to time.Time) ([]models.Deal, error) {
	m.historyFrom = from
	m.historyTo = to
	return m.deals, nil
}

func (m *MockClient) SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	if m.symbolErr != nil {
		return nil, m.symbolErr
	}
	return m.symbols[symbol], nil
}

func (m *MockClient) Shutdown(ctx context.Context) error {
	m.shutdownCalls++
	m.shutdownCtxErr = ctx.Err()
	return nil
}

// ============ Mock SymbolLookup ============

type MockSymbolLookup struct {
	infos map[string]models.SymbolInfo
	calls int
}

func NewMockSymbolLookup() *MockSymbolLookup {
	return &MockSymbolLookup{infos: make(map[string]models.SymbolInfo)}
}

func (m *MockSymbolLookup) Get(ctx context.Context, symbol string) models.SymbolInfo {
	m.calls++
	if info, ok := m.infos[symbol]; ok {
		return info
	}
	return models.DefaultSymbolInfo(symbol)
}

// ============ Mock SyncBroadcaster ============

type MockBroadcaster struct {
	started  []int64
	finished []string
}

func (m *MockBroadcaster) BroadcastSyncStarted(login int64, terminalID string) {
	m.started = append(m.started, login)
}

func (m *MockBroadcaster) BroadcastSyncFinished(login int64, result string) {
	m.finished = append(m.finished, result)
}

// ============ Проверки соответствия интерфейсам ============

var (
	_ TerminalAllocator = (*MockAllocator)(nil)
	_ SymbolLookup      = (*MockSymbolLookup)(nil)
	_ SyncBroadcaster   = (*MockBroadcaster)(nil)
)
