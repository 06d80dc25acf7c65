package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"

	"liqcalc/internal/engine"
	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пул JSON буферов: монитор шлёт riskUpdate на каждую позицию каждый
// tick, без пула это постоянные аллокации
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями.
//
// Центральный broadcast-менеджер: монитор риска, поток котировок и
// сервис уведомлений публикуют сюда, подключенные клиенты получают
// обновления без polling'а.
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал; отправка неблокирующая, переполнение - drop
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	stopCh   chan struct{}
	stopOnce sync.Once

	// Счётчики для lock-free чтения
	clientCount atomic.Int64
	dropped     atomic.Int64

	logger *utils.Logger
	mu     sync.RWMutex
}

// NewHub создает новый Hub
func NewHub(logger *utils.Logger) *Hub {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopCh:     make(chan struct{}),
		logger:     logger.WithComponent("websocket.hub"),
	}
}

// Run запускает главный цикл Hub.
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopCh:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.clientCount.Store(int64(total))
			h.logger.Info("client connected", utils.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.clientCount.Store(int64(total))
			h.logger.Info("client disconnected", utils.Int("total_clients", total))

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Stop останавливает Hub и закрывает все соединения
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
}

// fanOut рассылает сообщение всем клиентам. Список копируется под
// коротким RLock, отправка идёт без блокировки, отставшие клиенты
// удаляются: медленный подписчик не должен тормозить монитор
func (h *Hub) fanOut(message []byte) {
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
			toRemove = append(toRemove, client)
		}
	}

	if len(toRemove) == 0 {
		return
	}

	h.mu.Lock()
	for _, client := range toRemove {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.send)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.clientCount.Store(int64(total))
	h.logger.Warn("removed slow clients",
		utils.Int("removed", len(toRemove)),
		utils.Int("total_clients", total),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	h.clientCount.Store(0)
}

// Broadcast сериализует сообщение и рассылает его всем клиентам.
// Не блокирует: при заполненном канале сообщение отбрасывается
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.logger.Error("failed to marshal broadcast message", utils.Err(err))
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// BroadcastRaw рассылает уже сериализованное сообщение
func (h *Hub) BroadcastRaw(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stopCh:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastRiskUpdate отправляет результат оценки риска позиции
func (h *Hub) BroadcastRiskUpdate(update engine.RiskUpdate) {
	h.Broadcast(NewRiskUpdateMessage(update))
}

// BroadcastQuote отправляет новую котировку
func (h *Hub) BroadcastQuote(quote models.Quote) {
	h.Broadcast(NewQuoteUpdateMessage(quote))
}

// BroadcastNotification отправляет новое уведомление
func (h *Hub) BroadcastNotification(notification *models.Notification) {
	h.Broadcast(NewNotificationMessage(notification))
}

// BroadcastParamsUpdate сигнализирует об обновлении параметров ликвидности
func (h *Hub) BroadcastParamsUpdate(markets int) {
	h.Broadcast(NewParamsUpdateMessage(markets))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}
