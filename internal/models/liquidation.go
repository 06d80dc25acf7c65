package models

// Пороги классификации риска (фиксированная политика, в процентах
// дистанции до цены ликвидации)
const (
	AtRiskDistancePct   = 10.0
	CriticalDistancePct = 5.0
)

// LiquidationResult - производный, read-only результат расчёта риска.
//
// Пересчитывается на каждое изменение Position, никогда не мутируется.
// Инвариант: IsCritical ⇒ IsAtRisk.
type LiquidationResult struct {
	// Цена, при которой позиция будет принудительно закрыта
	LiquidationPrice float64 `json:"liquidation_price"`

	// Дистанция до ликвидации в валюте котировки.
	// Знаковая: > 0 - позиция в безопасности, < 0 - цена уже за ликвидацией
	DistanceInPrice float64 `json:"distance_in_price"`

	// Та же дистанция как процент от текущей цены
	DistanceFromLiquidation float64 `json:"distance_pct"`

	// Диагностика: equity / positionSize. На цену ликвидации не влияет
	MarginRatio float64 `json:"margin_ratio"`

	// Классификация риска
	IsAtRisk   bool `json:"is_at_risk"`   // дистанция < 10%
	IsCritical bool `json:"is_critical"`  // дистанция < 5%

	// Применённый к цене входа динамический спред в процентах.
	// nil, если расчёт шёл по пути без спреда
	Spread *float64 `json:"spread,omitempty"`
}
