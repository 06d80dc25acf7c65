package websocket

import (
	"time"

	"liqcalc/internal/engine"
	"liqcalc/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeRiskUpdate - свежий результат оценки риска позиции.
	// Отправляется монитором на каждом проходе по активным позициям
	MessageTypeRiskUpdate MessageType = "riskUpdate"

	// MessageTypeQuoteUpdate - новая котировка символа
	MessageTypeQuoteUpdate MessageType = "quoteUpdate"

	// MessageTypeNotification - событие риска (AT_RISK, CRITICAL,
	// RECOVERED, DATA_ERROR)
	MessageTypeNotification MessageType = "notification"

	// MessageTypeParamsUpdate - обновился снимок параметров ликвидности
	MessageTypeParamsUpdate MessageType = "paramsUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// RiskUpdateMessage - сообщение с результатом оценки риска позиции
type RiskUpdateMessage struct {
	BaseMessage
	Data *engine.RiskUpdate `json:"data"`
}

// QuoteUpdateMessage - сообщение с новой котировкой
type QuoteUpdateMessage struct {
	BaseMessage
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// NotificationMessage - сообщение о новом уведомлении
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные уведомления
type NotificationData struct {
	ID         int                    `json:"id"`
	Type       string                 `json:"type"`
	Severity   string                 `json:"severity"`
	PositionID *int                   `json:"position_id,omitempty"`
	Message    string                 `json:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ParamsUpdateMessage - сообщение об обновлении параметров ликвидности.
// Сами параметры клиент при необходимости запрашивает через REST,
// сообщение только сигнализирует о свежем снимке
type ParamsUpdateMessage struct {
	BaseMessage
	Markets int `json:"markets"`
}

// ============ Фабричные функции для создания сообщений ============

// NewRiskUpdateMessage создает сообщение с результатом оценки риска
func NewRiskUpdateMessage(update engine.RiskUpdate) *RiskUpdateMessage {
	return &RiskUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeRiskUpdate,
			Timestamp: time.Now(),
		},
		Data: &update,
	}
}

// NewQuoteUpdateMessage создает сообщение с котировкой
func NewQuoteUpdateMessage(quote models.Quote) *QuoteUpdateMessage {
	return &QuoteUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeQuoteUpdate,
			Timestamp: quote.Timestamp,
		},
		Symbol: quote.Symbol,
		Price:  quote.Price,
	}
}

// NewNotificationMessage создает сообщение уведомления
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:         notif.ID,
			Type:       notif.Type,
			Severity:   notif.Severity,
			PositionID: notif.PositionID,
			Message:    notif.Message,
			Meta:       notif.Meta,
			Timestamp:  notif.Timestamp,
		},
	}
}

// NewParamsUpdateMessage создает сообщение об обновлении параметров
func NewParamsUpdateMessage(markets int) *ParamsUpdateMessage {
	return &ParamsUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeParamsUpdate,
			Timestamp: time.Now(),
		},
		Markets: markets,
	}
}
