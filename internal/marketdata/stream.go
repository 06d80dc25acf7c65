package marketdata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"liqcalc/internal/engine"
	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

// stream.go - WebSocket поток котировок источника
//
// Необязательный канал доставки: при недоступности потока сервис
// деградирует до REST-опроса. Разрывы соединения обрабатываются
// автоматическим переподключением с exponential backoff и повторной
// подпиской на символы.

// StreamConfig конфигурация потока котировок
type StreamConfig struct {
	// URL - адрес WebSocket endpoint'а источника
	URL string

	// Переподключение: 2s, 4s, 8s, 16s, 16s...
	InitialDelay time.Duration // default: 2s
	MaxDelay     time.Duration // default: 16s
	MaxRetries   int           // 0 = бесконечно; default: 10

	ConnectTimeout time.Duration // default: 10s
	PingInterval   time.Duration // default: 30s
	WriteTimeout   time.Duration // default: 10s
}

// DefaultStreamConfig возвращает конфигурацию по умолчанию
func DefaultStreamConfig(url string) StreamConfig {
	return StreamConfig{
		URL:            url,
		InitialDelay:   2 * time.Second,
		MaxDelay:       16 * time.Second,
		MaxRetries:     10,
		ConnectTimeout: 10 * time.Second,
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}

// StreamState состояние соединения потока
type StreamState int32

const (
	StreamDisconnected StreamState = iota
	StreamConnecting
	StreamConnected
	StreamReconnecting
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamDisconnected:
		return "disconnected"
	case StreamConnecting:
		return "connecting"
	case StreamConnected:
		return "connected"
	case StreamReconnecting:
		return "reconnecting"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// streamMessage - кадр потока котировок источника
type streamMessage struct {
	Type   string  `json:"type"` // quote
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"` // unix millis
}

// subscribeRequest - запрос подписки на символы
type subscribeRequest struct {
	Op      string   `json:"op"` // subscribe
	Symbols []string `json:"symbols"`
}

// PriceStream - WebSocket поток котировок с автоматическим переподключением
type PriceStream struct {
	cfg    StreamConfig
	logger *utils.Logger

	conn   *websocket.Conn
	connMu sync.RWMutex

	state      int32 // atomic StreamState
	retryCount int32 // atomic

	closeChan chan struct{}
	closeOnce sync.Once

	// onQuote вызывается на каждую валидную котировку из потока
	onQuote func(models.Quote)

	symbols   []string
	symbolsMu sync.RWMutex
}

// NewPriceStream создаёт поток котировок.
// onQuote обязателен: котировки без потребителя бессмысленны.
func NewPriceStream(cfg StreamConfig, onQuote func(models.Quote), logger *utils.Logger) *PriceStream {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 16 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	return &PriceStream{
		cfg:       cfg,
		logger:    logger.WithComponent("marketdata.stream"),
		closeChan: make(chan struct{}),
		onQuote:   onQuote,
	}
}

// Subscribe задаёт список символов. При активном соединении подписка
// отправляется сразу, иначе - при следующем подключении.
func (s *PriceStream) Subscribe(symbols []string) error {
	s.symbolsMu.Lock()
	s.symbols = append([]string(nil), symbols...)
	s.symbolsMu.Unlock()

	if s.State() != StreamConnected {
		return nil
	}
	return s.sendSubscription()
}

// State возвращает текущее состояние соединения
func (s *PriceStream) State() StreamState {
	return StreamState(atomic.LoadInt32(&s.state))
}

// IsConnected сообщает установлено ли соединение
func (s *PriceStream) IsConnected() bool {
	return s.State() == StreamConnected
}

// RetryCount возвращает количество попыток переподключения подряд
func (s *PriceStream) RetryCount() int {
	return int(atomic.LoadInt32(&s.retryCount))
}

// Connect устанавливает соединение и запускает чтение
func (s *PriceStream) Connect() error {
	select {
	case <-s.closeChan:
		return fmt.Errorf("stream is closed")
	default:
	}

	atomic.StoreInt32(&s.state, int32(StreamConnecting))

	if err := s.dial(); err != nil {
		atomic.StoreInt32(&s.state, int32(StreamDisconnected))
		return err
	}

	atomic.StoreInt32(&s.state, int32(StreamConnected))
	atomic.StoreInt32(&s.retryCount, 0)

	go s.readPump()
	go s.pingPump()

	s.logger.Info("quote stream connected", utils.String("url", s.cfg.URL))
	return nil
}

// Close закрывает поток и останавливает переподключение
func (s *PriceStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeChan)
		atomic.StoreInt32(&s.state, int32(StreamClosed))

		s.connMu.Lock()
		defer s.connMu.Unlock()
		if s.conn != nil {
			err = s.conn.Close()
			s.conn = nil
		}
	})
	return err
}

// dial подключается и восстанавливает подписку
func (s *PriceStream) dial() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial quote stream: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	if err := s.sendSubscription(); err != nil {
		// Подписку можно повторить позже, соединение оставляем
		s.logger.Warn("resubscribe failed", utils.Err(err))
	}

	return nil
}

// sendSubscription отправляет текущий список символов
func (s *PriceStream) sendSubscription() error {
	s.symbolsMu.RLock()
	symbols := append([]string(nil), s.symbols...)
	s.symbolsMu.RUnlock()

	if len(symbols) == 0 {
		return nil
	}

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("no connection")
	}

	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteJSON(subscribeRequest{Op: "subscribe", Symbols: symbols})
}

// readPump читает кадры и раздаёт котировки
func (s *PriceStream) readPump() {
	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		s.connMu.RLock()
		conn := s.conn
		s.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(err)
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("skipping malformed stream frame", utils.Err(err))
			continue
		}

		if msg.Type != "quote" || msg.Symbol == "" || msg.Price <= 0 {
			continue
		}

		ts := time.UnixMilli(msg.Ts).UTC()
		if msg.Ts <= 0 {
			ts = time.Now().UTC()
		}

		s.onQuote(models.Quote{
			Symbol:    msg.Symbol,
			Price:     msg.Price,
			Timestamp: ts,
		})
	}
}

// pingPump проверяет живость соединения
func (s *PriceStream) pingPump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closeChan:
			return
		case <-ticker.C:
			s.connMu.RLock()
			conn := s.conn
			s.connMu.RUnlock()

			if conn == nil || s.State() != StreamConnected {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.handleDisconnect(err)
				return
			}
		}
	}
}

// handleDisconnect закрывает соединение и запускает переподключение
func (s *PriceStream) handleDisconnect(err error) {
	select {
	case <-s.closeChan:
		return
	default:
	}

	state := s.State()
	if state == StreamReconnecting || state == StreamClosed {
		return
	}
	atomic.StoreInt32(&s.state, int32(StreamReconnecting))

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	if err != nil {
		engine.RecordMarketDataError("stream")
		s.logger.Warn("quote stream disconnected", utils.Err(err))
	}

	go s.reconnectLoop()
}

// reconnectLoop переподключается с exponential backoff
func (s *PriceStream) reconnectLoop() {
	delay := s.cfg.InitialDelay

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		retryCount := atomic.AddInt32(&s.retryCount, 1)
		if s.cfg.MaxRetries > 0 && int(retryCount) > s.cfg.MaxRetries {
			s.logger.Error("quote stream gave up reconnecting",
				utils.Int("attempts", s.cfg.MaxRetries),
			)
			atomic.StoreInt32(&s.state, int32(StreamDisconnected))
			return
		}

		s.logger.Info("reconnecting quote stream",
			utils.Int("attempt", int(retryCount)),
			utils.String("delay", delay.String()),
		)

		select {
		case <-s.closeChan:
			return
		case <-time.After(delay):
		}

		if err := s.dial(); err != nil {
			s.logger.Warn("quote stream reconnect failed", utils.Err(err))
			delay *= 2
			if delay > s.cfg.MaxDelay {
				delay = s.cfg.MaxDelay
			}
			continue
		}

		atomic.StoreInt32(&s.state, int32(StreamConnected))
		atomic.StoreInt32(&s.retryCount, 0)
		s.logger.Info("quote stream reconnected")

		go s.readPump()
		go s.pingPump()
		return
	}
}
