package models

import "time"

// WatchedPosition - зарегистрированная пользователем позиция для мониторинга
//
// Хранит только входы расчёта. Результаты (цена ликвидации, дистанция,
// спред) никогда не персистятся - они пересчитываются на каждое обновление
// рыночных данных и уходят подписчикам по WebSocket.
type WatchedPosition struct {
	ID         int       `json:"id" db:"id"`
	Symbol     string    `json:"symbol" db:"symbol"`           // BTCUSDT
	Side       string    `json:"side" db:"side"`               // long, short
	Collateral float64   `json:"collateral" db:"collateral"`   // USDT
	Leverage   float64   `json:"leverage" db:"leverage"`       // [1, 500]
	EntryPrice float64   `json:"entry_price" db:"entry_price"`
	Status     string    `json:"status" db:"status"`           // active, paused
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Статусы мониторинга позиции
const (
	PositionStatusActive = "active"
	PositionStatusPaused = "paused"
)
