package websocket

import (
	"bytes"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"mtsync/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пул JSON-буферов: broadcast не аллоцирует на каждое сообщение
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер для broadcast событий синхронизации всем
// подключенным клиентам. Фронтенд видит ход синхронизаций и
// состояние пула терминалов без polling.
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять события: hub.BroadcastSyncStarted(login, terminalID)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			utils.Debug("websocket client connected", utils.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			utils.Debug("websocket client disconnected", utils.Int("total", total))

		case message := <-h.broadcast:
			// Список клиентов копируется под коротким RLock,
			// отправка идет без блокировки
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает читать - отключаем
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				utils.Warn("removed slow websocket clients", utils.Int("count", len(toRemove)))
			}
		}
	}
}

// Broadcast сериализует сообщение и отправляет всем клиентам
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		utils.Error("broadcast message marshal failed", utils.Err(err))
		jsonBufferPool.Put(buf)
		return
	}

	// Encode добавляет trailing newline
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- msgCopy
}

// BroadcastSyncStarted отправляет событие старта синхронизации
func (h *Hub) BroadcastSyncStarted(login int64, terminalID string) {
	h.Broadcast(&SyncStartedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeSyncStarted, Timestamp: time.Now().UTC()},
		Login:       login,
		Terminal:    terminalID,
	})
}

// BroadcastSyncFinished отправляет событие завершения синхронизации
func (h *Hub) BroadcastSyncFinished(login int64, result string) {
	h.Broadcast(&SyncFinishedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeSyncFinished, Timestamp: time.Now().UTC()},
		Login:       login,
		Result:      result,
	})
}

// BroadcastPoolStatus отправляет состояние пула терминалов
func (h *Hub) BroadcastPoolStatus(freeTerminals int) {
	h.Broadcast(&PoolStatusMessage{
		BaseMessage:   BaseMessage{Type: MessageTypePoolStatus, Timestamp: time.Now().UTC()},
		FreeTerminals: freeTerminals,
	})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
