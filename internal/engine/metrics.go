package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики движка риска
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации дистанций и спредов
// - Alertmanager для уведомлений о критических позициях
// - Анализ латентности цикла мониторинга в production

// ============ Метрики латентности ============

// RiskCalculationLatency - время одного расчёта риска
var RiskCalculationLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "risk_calculation_latency_ms",
		Help:      "Time to compute a liquidation risk result in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"path"}, // plain, spread
)

// MonitorCycleLatency - время полного прохода монитора по позициям
var MonitorCycleLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "monitor_cycle_latency_ms",
		Help:      "Time to evaluate all watched positions in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
)

// ============ Счётчики ============

// RiskCalculations - количество расчётов риска
var RiskCalculations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "risk_calculations_total",
		Help:      "Total number of risk calculations",
	},
	[]string{"path"}, // plain, spread
)

// SpreadCapHits - срабатывания капов спреда
var SpreadCapHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "spread_cap_hits_total",
		Help:      "Number of times a computed spread was clamped by a cap",
	},
	[]string{"variant", "bound"}, // variant: entry, pnl; bound: positive, negative
)

// NotificationsEmitted - отправленные уведомления по типам
var NotificationsEmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "notifications_emitted_total",
		Help:      "Total number of risk notifications emitted",
	},
	[]string{"type"}, // AT_RISK, CRITICAL, RECOVERED, DATA_ERROR
)

// MarketDataErrors - ошибки источников рыночных данных
var MarketDataErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqcalc",
		Subsystem: "marketdata",
		Name:      "errors_total",
		Help:      "Total number of market data source errors",
	},
	[]string{"source"}, // prices, params, stream
)

// ============ Метрики состояния ============

// WatchedPositions - количество отслеживаемых позиций по статусам
var WatchedPositions = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "liqcalc",
		Subsystem: "engine",
		Name:      "watched_positions",
		Help:      "Number of watched positions by risk state",
	},
	[]string{"state"}, // safe, at_risk, critical, stale
)

// QuoteAge - возраст последней котировки символа
var QuoteAge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "liqcalc",
		Subsystem: "marketdata",
		Name:      "quote_age_seconds",
		Help:      "Age of the most recent quote per symbol in seconds",
	},
	[]string{"symbol"},
)

// ParamsCacheFallbacks - выдачи последних валидных параметров из кэша
// при недоступном источнике
var ParamsCacheFallbacks = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liqcalc",
		Subsystem: "marketdata",
		Name:      "params_cache_fallbacks_total",
		Help:      "Times stale-but-valid liquidity params were served because the source was down",
	},
)

// ============ Вспомогательные функции ============

// RecordRiskCalculation записывает расчёт риска и его латентность
func RecordRiskCalculation(path string, latencyMs float64) {
	RiskCalculations.WithLabelValues(path).Inc()
	RiskCalculationLatency.WithLabelValues(path).Observe(latencyMs)
}

// RecordSpreadCap записывает срабатывание капа
func RecordSpreadCap(variant, bound string) {
	SpreadCapHits.WithLabelValues(variant, bound).Inc()
}

// RecordNotification записывает отправленное уведомление
func RecordNotification(notificationType string) {
	NotificationsEmitted.WithLabelValues(notificationType).Inc()
}

// RecordMarketDataError записывает ошибку источника данных
func RecordMarketDataError(source string) {
	MarketDataErrors.WithLabelValues(source).Inc()
}

// UpdateWatchedPositions обновляет счётчики позиций по состояниям
func UpdateWatchedPositions(safe, atRisk, critical, stale int) {
	WatchedPositions.WithLabelValues("safe").Set(float64(safe))
	WatchedPositions.WithLabelValues("at_risk").Set(float64(atRisk))
	WatchedPositions.WithLabelValues("critical").Set(float64(critical))
	WatchedPositions.WithLabelValues("stale").Set(float64(stale))
}
