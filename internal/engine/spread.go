package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"liqcalc/internal/models"
)

// ============================================================
// Модель динамического спреда
// ============================================================

// Фолбэк-дефолты множителей на случай, когда источник параметров их не
// отдал. Pair index 1 исторически торгуется с более тонкой книгой,
// поэтому несёт удвоенные коэффициенты.
const (
	defaultPriceImpactMult      = 0.1
	defaultPriceImpactMultPair1 = 0.2

	defaultSkewImpactMult      = 0.03
	defaultSkewImpactMultPair1 = 0.06

	defaultPnlPriceImpactMult      = 0.125
	defaultPnlPriceImpactMultPair1 = 0.25

	defaultPnlSkewImpactMult      = 0.0375
	defaultPnlSkewImpactMultPair1 = 0.075
)

// Дефолтные асимметричные капы: положительный спред режется мягче,
// отрицательный - жёстче
const (
	defaultSpreadCapPositive = 0.015
	defaultSpreadCapNegative = -0.005

	defaultPnlSpreadCapPositive = 0.02
	defaultPnlSpreadCapNegative = -0.01
)

// decimalScale - точность деления mult × size / depth в знаках после
// запятой. Хватает с запасом: дальше всё равно идёт float64-экспонента.
const decimalScale = 18

// multiplierSet - разрешённый набор коэффициентов для одного из двух
// вариантов спреда (основного или PnL)
type multiplierSet struct {
	priceImpact float64
	skewImpact  float64
	capPositive float64
	capNegative float64
}

// entryMultipliers разрешает основной набор коэффициентов:
// значение из параметров, иначе дефолт по pair index
func entryMultipliers(p models.MarketLiquidityParams) multiplierSet {
	set := multiplierSet{
		priceImpact: defaultPriceImpactMult,
		skewImpact:  defaultSkewImpactMult,
		capPositive: defaultSpreadCapPositive,
		capNegative: defaultSpreadCapNegative,
	}
	if p.PairIndex == 1 {
		set.priceImpact = defaultPriceImpactMultPair1
		set.skewImpact = defaultSkewImpactMultPair1
	}

	if p.PriceImpactMultiplier != nil {
		set.priceImpact = *p.PriceImpactMultiplier
	}
	if p.SkewImpactMultiplier != nil {
		set.skewImpact = *p.SkewImpactMultiplier
	}
	if p.SpreadCapPositive != nil {
		set.capPositive = *p.SpreadCapPositive
	}
	if p.SpreadCapNegative != nil {
		set.capNegative = *p.SpreadCapNegative
	}
	return set
}

// pnlMultipliers разрешает PnL-набор коэффициентов (обычно агрессивнее
// основного: закрытие в минусе двигает книгу сильнее)
func pnlMultipliers(p models.MarketLiquidityParams) multiplierSet {
	set := multiplierSet{
		priceImpact: defaultPnlPriceImpactMult,
		skewImpact:  defaultPnlSkewImpactMult,
		capPositive: defaultPnlSpreadCapPositive,
		capNegative: defaultPnlSpreadCapNegative,
	}
	if p.PairIndex == 1 {
		set.priceImpact = defaultPnlPriceImpactMultPair1
		set.skewImpact = defaultPnlSkewImpactMultPair1
	}

	if p.PnlPriceImpactMultiplier != nil {
		set.priceImpact = *p.PnlPriceImpactMultiplier
	}
	if p.PnlSkewImpactMultiplier != nil {
		set.skewImpact = *p.PnlSkewImpactMultiplier
	}
	if p.PnlSpreadCapPositive != nil {
		set.capPositive = *p.PnlSpreadCapPositive
	}
	if p.PnlSpreadCapNegative != nil {
		set.capNegative = *p.PnlSpreadCapNegative
	}
	return set
}

// DynamicSpread считает оба варианта динамического спреда для позиции
// заданного размера на рынке с заданными параметрами ликвидности.
//
// dynamicSpread = baseSpread + priceImpactSpread + skewImpactSpread,
// после чего результат режется асимметричными капами. PnL-вариант
// считается по тем же формулам со своим набором множителей и капов.
// Все компоненты санируются: NaN никогда не покидает эту функцию.
func DynamicSpread(side string, positionSize float64, params models.MarketLiquidityParams) models.SpreadResult {
	entry := entryMultipliers(params)
	pnl := pnlMultipliers(params)

	priceImpact := priceImpactSpread(side, positionSize, entry.priceImpact, params)
	skewImpact := skewImpactSpread(side, positionSize, entry.skewImpact, params)
	dynamic := clampSpread(params.BaseSpread+priceImpact+skewImpact, entry.capPositive, entry.capNegative, spreadVariantEntry)

	pnlPriceImpact := priceImpactSpread(side, positionSize, pnl.priceImpact, params)
	pnlSkewImpact := skewImpactSpread(side, positionSize, pnl.skewImpact, params)
	pnlDynamic := clampSpread(params.BaseSpread+pnlPriceImpact+pnlSkewImpact, pnl.capPositive, pnl.capNegative, spreadVariantPnl)

	return models.SpreadResult{
		PriceImpactSpread:    priceImpact,
		SkewImpactSpread:     skewImpact,
		DynamicSpread:        dynamic,
		PnlPriceImpactSpread: pnlPriceImpact,
		PnlSkewImpactSpread:  pnlSkewImpact,
		PnlDynamicSpread:     pnlDynamic,
	}
}

// priceImpactSpread - компонент глубины книги: exp(mult × size / depth) − 1.
//
// Лонг ест ликвидность над ценой, шорт - под ней. Нулевая или
// отрицательная глубина даёт нулевой компонент, а не бесконечность.
// Отношение mult × size / depth считается в decimal: при больших
// позициях и мелкой глубине float64-деление теряет знаки, которые
// экспонента потом раздувает.
func priceImpactSpread(side string, positionSize, multiplier float64, p models.MarketLiquidityParams) float64 {
	depth := p.OnePercentDepthAbove
	if side == models.SideShort {
		depth = p.OnePercentDepthBelow
	}
	if depth <= 0 || positionSize <= 0 {
		return 0
	}

	ratio, _ := decimal.NewFromFloat(multiplier).
		Mul(decimal.NewFromFloat(positionSize)).
		DivRound(decimal.NewFromFloat(depth), decimalScale).
		Float64()

	return sanitize(math.Exp(ratio) - 1)
}

// skewImpactSpread - компонент перекоса открытого интереса.
//
// skewP - доля стороны позиции в суммарном OI до открытия, skewPAfter -
// после. Компонент = ((e^after − e^before) + (e^(1−after) − e^(1−before))) × mult.
// Нулевой лонговый OI означает "данных о перекосе нет" - компонент ноль.
func skewImpactSpread(side string, positionSize, multiplier float64, p models.MarketLiquidityParams) float64 {
	if p.OpenInterestLong <= 0 {
		return 0
	}
	total := p.OpenInterestLong + p.OpenInterestShort
	if total <= 0 {
		return 0
	}

	sideOI := p.OpenInterestLong
	if side == models.SideShort {
		sideOI = p.OpenInterestShort
	}

	skewP := sideOI / total
	skewPAfter := (sideOI + positionSize) / (total + positionSize)

	raw := (math.Exp(skewPAfter) - math.Exp(skewP)) +
		(math.Exp(1-skewPAfter) - math.Exp(1-skewP))

	return sanitize(raw * multiplier)
}

// Значения label'а variant метрики SpreadCapHits
const (
	spreadVariantEntry = "entry"
	spreadVariantPnl   = "pnl"
)

// clampSpread режет спред асимметричными капами и санирует NaN.
// Каждое срабатывание капа учитывается в SpreadCapHits: частые
// клампы - сигнал пересмотреть капы или множители рынка
func clampSpread(v, capPositive, capNegative float64, variant string) float64 {
	v = sanitize(v)
	if v > capPositive {
		RecordSpreadCap(variant, "positive")
		return capPositive
	}
	if v < capNegative {
		RecordSpreadCap(variant, "negative")
		return capNegative
	}
	return v
}
