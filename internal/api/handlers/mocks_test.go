package handlers

import (
	"context"
	"errors"

	"mtsync/internal/account"
	"mtsync/internal/models"
	"mtsync/pkg/utils"
)

// ============ Общие ошибки для моков ============

var ErrMockDatabase = errors.New("mock database error")

// testLogger возвращает логгер, молчащий в тестах
func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "error", Output: "/dev/null"})
}

// ============ MockSyncService ============

// MockSyncService - мок сервиса синхронизации для тестирования handlers
type MockSyncService struct {
	response *models.SyncResponse
	calls    int
	lastReq  account.SyncRequest
}

func NewMockSyncService() *MockSyncService {
	return &MockSyncService{
		response: models.Success(&models.AccountSnapshot{}),
	}
}

func (m *MockSyncService) SetResponse(resp *models.SyncResponse) {
	m.response = resp
}

func (m *MockSyncService) Sync(ctx context.Context, req account.SyncRequest) *models.SyncResponse {
	m.calls++
	m.lastReq = req
	return m.response
}

// ============ MockTerminalCounter ============

type MockTerminalCounter struct {
	free int
	err  error
}

func (m *MockTerminalCounter) CountFree(ctx context.Context) (int, error) {
	return m.free, m.err
}

// ============ MockClientCounter ============

type MockClientCounter struct {
	clients int
}

func (m *MockClientCounter) ClientCount() int {
	return m.clients
}

// Проверки соответствия интерфейсам
var (
	_ SyncService     = (*MockSyncService)(nil)
	_ TerminalCounter = (*MockTerminalCounter)(nil)
	_ ClientCounter   = (*MockClientCounter)(nil)
)
