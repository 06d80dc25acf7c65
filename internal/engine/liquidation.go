package engine

import (
	"math"

	"liqcalc/internal/models"
)

// DefaultLiquidationThreshold - доля залога, потеря которой ликвидирует
// позицию. Протокольная константа; переопределяется через настройки,
// в формулах не захардкожена.
const DefaultLiquidationThreshold = 0.85

// Calculator - движок расчёта ликвидации.
//
// Чистый и детерминированный: никакого состояния между вызовами, никаких
// часов и случайности. Два вызова с одинаковыми входами обязаны дать
// бит-идентичные результаты. Деградировавшие входы (нулевое плечо, нулевая
// цена) дают нулевые значения, а не панику - валидация живёт на границе,
// в models.NewPosition.
type Calculator struct {
	threshold float64
}

// NewCalculator создаёт движок с заданным порогом ликвидации.
// Порог вне (0, 1) заменяется дефолтным.
func NewCalculator(threshold float64) *Calculator {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultLiquidationThreshold
	}
	return &Calculator{threshold: threshold}
}

// Threshold возвращает действующий порог ликвидации
func (c *Calculator) Threshold() float64 {
	return c.threshold
}

// LiquidationPrice возвращает цену ликвидации позиции.
//
// Потеря как доля залога = (сдвиг цены как доля входа) × плечо,
// поэтому сдвиг до ликвидации = threshold / leverage.
// Лонг ликвидируется ниже входа, шорт - выше.
// Однопараметрическая модель: отдельного maintenance margin нет.
func (c *Calculator) LiquidationPrice(p models.Position) float64 {
	if p.Leverage <= 0 || p.EntryPrice <= 0 {
		return 0
	}

	moveFraction := c.threshold / p.Leverage

	if p.IsLong() {
		return p.EntryPrice * (1 - moveFraction)
	}
	return p.EntryPrice * (1 + moveFraction)
}

// MarginRatio возвращает equity / positionSize.
//
// Диагностическая метрика: на цену ликвидации не влияет
// (та выводится из порога, а не из живой маржи).
func (c *Calculator) MarginRatio(p models.Position) float64 {
	size := p.Size()
	if size <= 0 || p.EntryPrice <= 0 {
		return 0
	}

	pnl := (p.CurrentPrice - p.EntryPrice) * size / p.EntryPrice
	if !p.IsLong() {
		pnl = -pnl
	}

	equity := p.Collateral + pnl
	return sanitize(equity / size)
}

// LiquidationDistance возвращает полный результат риска без учёта спреда.
//
// Дистанция знаковая: положительная - позиция в безопасности,
// отрицательная - текущая цена уже за ценой ликвидации.
func (c *Calculator) LiquidationDistance(p models.Position) models.LiquidationResult {
	liqPrice := c.LiquidationPrice(p)

	var distPrice float64
	if p.IsLong() {
		distPrice = p.CurrentPrice - liqPrice
	} else {
		distPrice = liqPrice - p.CurrentPrice
	}

	var distPct float64
	if p.CurrentPrice > 0 {
		distPct = distPrice / p.CurrentPrice * 100
	}
	distPct = sanitize(distPct)

	return models.LiquidationResult{
		LiquidationPrice:        liqPrice,
		DistanceInPrice:         distPrice,
		DistanceFromLiquidation: distPct,
		MarginRatio:             c.MarginRatio(p),
		IsAtRisk:                distPct < models.AtRiskDistancePct,
		IsCritical:              distPct < models.CriticalDistancePct,
	}
}

// LiquidationWithSpread возвращает результат риска с учётом динамического
// спреда.
//
// Без прикреплённых параметров ликвидности делегирует LiquidationDistance
// (Spread в результате отсутствует). Иначе спред корректирует цену ВХОДА:
// лонг платит больше (×(1+s)), шорт получает меньше (×(1−s)) - моделируем
// стоимость открытия по худшему эффективному филлу, текущая цена не
// трогается.
func (c *Calculator) LiquidationWithSpread(p models.Position) models.LiquidationResult {
	if p.Liquidity == nil {
		return c.LiquidationDistance(p)
	}

	spread := DynamicSpread(p.Side, p.Size(), *p.Liquidity)

	adjusted := p
	if p.IsLong() {
		adjusted.EntryPrice = p.EntryPrice * (1 + spread.DynamicSpread)
	} else {
		adjusted.EntryPrice = p.EntryPrice * (1 - spread.DynamicSpread)
	}

	result := c.LiquidationDistance(adjusted)

	spreadPct := spread.DynamicSpread * 100
	result.Spread = &spreadPct

	return result
}

// sanitize нормализует NaN в ноль: некорректные данные ликвидности дают
// "нет эффекта", а не ломают весь расчёт
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
