package models

import "time"

// MarketInfo - запись реестра поддерживаемых рынков
//
// Связывает символ рынка с pair index, по которому источник параметров
// ликвидности ключует свои записи. Рынки, отсутствующие в реестре,
// получают pair index 0 (документированный фолбэк, не ошибка).
type MarketInfo struct {
	Symbol    string  `json:"symbol"`     // BTCUSDT
	Base      string  `json:"base"`       // BTC
	Quote     string  `json:"quote"`      // USDT
	PairIndex int     `json:"pair_index"`
}

// Quote - последняя известная котировка рынка
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
