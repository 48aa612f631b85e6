package websocket

import "time"

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeSyncStarted - синхронизация счёта началась,
	// терминал выдан из пула
	MessageTypeSyncStarted MessageType = "syncStarted"

	// MessageTypeSyncFinished - синхронизация завершилась
	// (успешно или с ожидаемым отказом)
	MessageTypeSyncFinished MessageType = "syncFinished"

	// MessageTypePoolStatus - состояние пула терминалов
	MessageTypePoolStatus MessageType = "poolStatus"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// SyncStartedMessage - сообщение о старте синхронизации
type SyncStartedMessage struct {
	BaseMessage
	Login    int64  `json:"login"`
	Terminal string `json:"terminal"`
}

// SyncFinishedMessage - сообщение о завершении синхронизации.
// Result повторяет метку результата из метрик: success,
// no_free_terminals, auth_failed, connect_failed,
// account_unavailable, error.
type SyncFinishedMessage struct {
	BaseMessage
	Login  int64  `json:"login"`
	Result string `json:"result"`
}

// PoolStatusMessage - сообщение о состоянии пула терминалов
type PoolStatusMessage struct {
	BaseMessage
	FreeTerminals int `json:"free_terminals"`
}
