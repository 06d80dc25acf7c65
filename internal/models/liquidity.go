package models

import "time"

// MarketLiquidityParams - параметры ликвидности и скоса рынка по pair index.
//
// Приходят от внешнего источника (см. internal/marketdata), кэшируются там
// с окном свежести. Движок видит их как read-only снимок, валидный на один
// расчёт. Все опциональные поля - указатели: отсутствие поля в ответе
// источника означает фолбэк на дефолт движка, а не ноль.
type MarketLiquidityParams struct {
	PairIndex int `json:"pair_index"`

	// Базовый спред рынка, дробная величина (0.0002 = 0.02%)
	BaseSpread float64 `json:"base_spread"`

	// Основной набор множителей (спред входа)
	PriceImpactMultiplier *float64 `json:"price_impact_multiplier,omitempty"`
	SkewImpactMultiplier  *float64 `json:"skew_impact_multiplier,omitempty"`

	// Вторичный "PnL" набор (спред выхода/оценки)
	PnlPriceImpactMultiplier *float64 `json:"pnl_price_impact_multiplier,omitempty"`
	PnlSkewImpactMultiplier  *float64 `json:"pnl_skew_impact_multiplier,omitempty"`

	// Ликвидность до сдвига цены на 1%, в котируемой валюте.
	// Асимметрична: лонг давит цену вверх (above), шорт - вниз (below)
	OnePercentDepthAbove float64 `json:"one_percent_depth_above"`
	OnePercentDepthBelow float64 `json:"one_percent_depth_below"`

	// Открытый интерес по сторонам, в котируемой валюте
	OpenInterestLong  float64 `json:"open_interest_long"`
	OpenInterestShort float64 `json:"open_interest_short"`

	// Асимметричные капы итогового спреда, дробные величины
	SpreadCapPositive    *float64 `json:"spread_cap_positive,omitempty"`
	SpreadCapNegative    *float64 `json:"spread_cap_negative,omitempty"`
	PnlSpreadCapPositive *float64 `json:"pnl_spread_cap_positive,omitempty"`
	PnlSpreadCapNegative *float64 `json:"pnl_spread_cap_negative,omitempty"`

	// Время снимка у источника (информационно, движком не используется)
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SpreadResult - результат модели динамического спреда.
//
// Все значения - знаковые дробные величины (0.002 = 0.2%).
// NaN-промежуточные результаты нормализуются в 0 ещё внутри модели.
type SpreadResult struct {
	// Компоненты основного набора
	PriceImpactSpread float64 `json:"price_impact_spread"`
	SkewImpactSpread  float64 `json:"skew_impact_spread"`

	// base + priceImpact + skewImpact, обрезанный капами
	DynamicSpread float64 `json:"dynamic_spread"`

	// Компоненты и агрегат вторичного "PnL" набора
	PnlPriceImpactSpread float64 `json:"pnl_price_impact_spread"`
	PnlSkewImpactSpread  float64 `json:"pnl_skew_impact_spread"`
	PnlDynamicSpread     float64 `json:"pnl_dynamic_spread"`
}
