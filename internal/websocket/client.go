package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"liqcalc/pkg/utils"
)

const (
	// Время ожидания записи сообщения
	writeWait = 10 * time.Second

	// Время ожидания между pong сообщениями
	pongWait = 60 * time.Second

	// Интервал отправки ping (должен быть меньше pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения. Клиенты ничего не
	// присылают кроме ping/pong, большой фрейм - это ошибка
	maxMessageSize = 1024

	// Размер буфера отправки клиента. riskUpdate на каждую позицию
	// каждый tick плюс котировки - буфер должен вмещать всплеск
	clientSendBufferSize = 512
)

// OriginChecker проверяет Origin по белому списку за O(1)
type OriginChecker struct {
	allowedOrigins map[string]struct{}
	allowAll       bool
}

// NewOriginChecker создает проверку origin'ов.
// Пустой список или "*" разрешает все (development mode)
func NewOriginChecker(origins []string) *OriginChecker {
	checker := &OriginChecker{
		allowedOrigins: make(map[string]struct{}),
	}

	if len(origins) == 0 {
		checker.allowAll = true
		return checker
	}

	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			checker.allowAll = true
			continue
		}
		if origin != "" {
			checker.allowedOrigins[origin] = struct{}{}
		}
	}

	return checker
}

// Check проверяет origin. Пустой origin (curl, API клиенты) разрешён
func (oc *OriginChecker) Check(origin string) bool {
	if origin == "" || oc.allowAll {
		return true
	}
	_, ok := oc.allowedOrigins[origin]
	return ok
}

// Handler - HTTP handler апгрейда соединений до WebSocket для Hub'а
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *utils.Logger
}

// NewHandler создает WebSocket handler.
// allowedOrigins - белый список Origin'ов; пустой разрешает все
func NewHandler(hub *Hub, allowedOrigins []string, logger *utils.Logger) *Handler {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	checker := NewOriginChecker(allowedOrigins)

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return checker.Check(r.Header.Get("Origin"))
			},
			EnableCompression: true,
		},
		logger: logger.WithComponent("websocket.handler"),
	}
}

// ServeHTTP апгрейдит HTTP соединение до WebSocket и регистрирует
// клиента в Hub'е
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", utils.Err(err))
		return
	}

	client := &Client{
		conn:   conn,
		hub:    h.hub,
		send:   make(chan []byte, clientSendBufferSize),
		logger: h.logger,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// Client представляет одно WebSocket соединение.
//
// Две горутины на клиента: readPump контролирует живость соединения,
// writePump выгружает буфер исходящих сообщений
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *utils.Logger
}

// readPump читает (и отбрасывает) входящие сообщения.
// Поток данных односторонний, чтение нужно только для pong'ов
// и детекции разрыва
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", utils.Err(err))
			}
			return
		}
	}
}

// writePump отправляет сообщения клиенту и шлёт периодические ping'и
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Выгружаем накопившийся буфер одним фреймом
		drainLoop:
			for {
				select {
				case msg, ok := <-c.send:
					if !ok {
						break drainLoop
					}
					w.Write([]byte{'\n'})
					w.Write(msg)
				default:
					break drainLoop
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
