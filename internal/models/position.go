package models

import (
	"errors"
	"fmt"
)

// Стороны позиции
const (
	SideLong  = "long"
	SideShort = "short"
)

// Границы плеча. Биржевой максимум 500x — выше движок не считает,
// это ошибка конструирования, а не расчёта.
const (
	MinLeverage = 1.0
	MaxLeverage = 500.0
)

// Ошибки конструирования позиции.
// Возникают ТОЛЬКО на границе (NewPosition) - чистые функции движка
// никогда не возвращают ошибок, они деградируют до нулевых значений.
var (
	ErrInvalidSide       = errors.New("side must be long or short")
	ErrInvalidCollateral = errors.New("collateral must be positive")
	ErrInvalidLeverage   = fmt.Errorf("leverage must be between %.0f and %.0f", MinLeverage, MaxLeverage)
	ErrInvalidEntryPrice = errors.New("entry price must be positive")
	ErrInvalidPrice      = errors.New("current price must be positive")
)

// Position - снимок позиции для одного расчёта риска
//
// Неизменяема после конструирования: любое изменение входа
// (слайдер плеча, смена рынка, обновление цены) = новый Position.
// Liquidity опциональна - без неё расчёт идёт по пути без спреда.
type Position struct {
	Side         string                 `json:"side"`
	Collateral   float64                `json:"collateral"`    // в котируемой валюте (USDT)
	Leverage     float64                `json:"leverage"`      // [1, 500]
	EntryPrice   float64                `json:"entry_price"`
	CurrentPrice float64                `json:"current_price"`
	Liquidity    *MarketLiquidityParams `json:"liquidity,omitempty"`
}

// NewPosition конструирует позицию с валидацией входов.
//
// Единственное место, где деградировавшие входы превращаются в ошибку.
// Внутри движка таких проверок нет - он обязан выдавать результат
// для любого сконструированного Position.
func NewPosition(side string, collateral, leverage, entryPrice, currentPrice float64) (*Position, error) {
	if side != SideLong && side != SideShort {
		return nil, ErrInvalidSide
	}
	if collateral <= 0 {
		return nil, ErrInvalidCollateral
	}
	if leverage < MinLeverage || leverage > MaxLeverage {
		return nil, ErrInvalidLeverage
	}
	if entryPrice <= 0 {
		return nil, ErrInvalidEntryPrice
	}
	if currentPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	return &Position{
		Side:         side,
		Collateral:   collateral,
		Leverage:     leverage,
		EntryPrice:   entryPrice,
		CurrentPrice: currentPrice,
	}, nil
}

// WithLiquidity возвращает копию позиции с прикреплёнными параметрами
// ликвидности. Исходная позиция не изменяется.
func (p Position) WithLiquidity(params *MarketLiquidityParams) Position {
	p.Liquidity = params
	return p
}

// Size возвращает размер позиции в котируемой валюте (collateral × leverage)
func (p Position) Size() float64 {
	return p.Collateral * p.Leverage
}

// IsLong возвращает true для лонга
func (p Position) IsLong() bool {
	return p.Side == SideLong
}
