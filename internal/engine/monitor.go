package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"liqcalc/internal/models"
)

// ============================================================
// Периодический мониторинг отслеживаемых позиций
// ============================================================

// riskState - внутреннее состояние позиции для edge-triggered уведомлений
type riskState int

const (
	stateUnknown riskState = iota
	stateSafe
	stateAtRisk
	stateCritical
	stateStale // нет свежей котировки
)

func (s riskState) String() string {
	switch s {
	case stateSafe:
		return "safe"
	case stateAtRisk:
		return "at_risk"
	case stateCritical:
		return "critical"
	case stateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// RiskUpdate - результат одного прохода по позиции, уходит в WebSocket
type RiskUpdate struct {
	PositionID int                     `json:"position_id"`
	Symbol     string                  `json:"symbol"`
	Price      float64                 `json:"price"`
	Result     models.LiquidationResult `json:"result"`
	Timestamp  time.Time               `json:"timestamp"`
}

// MonitorConfig - конфигурация монитора риска
type MonitorConfig struct {
	// Интервал прохода по позициям
	CheckInterval time.Duration

	// Максимальный возраст котировки; старше - позиция считается stale
	QuoteMaxAge time.Duration
}

// DefaultMonitorConfig возвращает конфигурацию по умолчанию
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CheckInterval: 2 * time.Second,
		QuoteMaxAge:   30 * time.Second,
	}
}

// RiskMonitor - воркер периодической оценки риска отслеживаемых позиций.
//
// Сам позиций не хранит и настроек не знает: источник позиций и функция
// оценки инжектируются callback'ами, чтобы монитор не тянул слои выше
// себя. Уведомления edge-triggered: событие отправляется на ПЕРЕХОДЕ
// между зонами, а не на каждом тике внутри зоны.
type RiskMonitor struct {
	quotes *QuoteBook

	// Источник активных позиций
	getPositions func(ctx context.Context) ([]models.WatchedPosition, error)

	// Оценка риска одной позиции по текущей цене. Слой выше решает,
	// применять ли спред и с каким порогом считать.
	evaluate func(wp models.WatchedPosition, price float64) models.LiquidationResult

	// Канал уведомлений; отправка неблокирующая
	notificationChan chan<- *models.Notification

	// Callback для пуша результата в WebSocket hub
	broadcastFn func(update RiskUpdate)

	// Последнее известное состояние по ID позиции
	states map[int]riskState
	mu     sync.Mutex

	config MonitorConfig
	stopCh chan struct{}
}

// NewRiskMonitor создаёт монитор риска
func NewRiskMonitor(
	quotes *QuoteBook,
	getPositions func(ctx context.Context) ([]models.WatchedPosition, error),
	evaluate func(wp models.WatchedPosition, price float64) models.LiquidationResult,
	notifChan chan<- *models.Notification,
	broadcastFn func(update RiskUpdate),
	config MonitorConfig,
) *RiskMonitor {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultMonitorConfig().CheckInterval
	}
	if config.QuoteMaxAge <= 0 {
		config.QuoteMaxAge = DefaultMonitorConfig().QuoteMaxAge
	}

	return &RiskMonitor{
		quotes:           quotes,
		getPositions:     getPositions,
		evaluate:         evaluate,
		notificationChan: notifChan,
		broadcastFn:      broadcastFn,
		states:           make(map[int]riskState),
		config:           config,
		stopCh:           make(chan struct{}),
	}
}

// Start запускает цикл мониторинга. Блокирует до отмены контекста
// или вызова Stop.
func (mon *RiskMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(mon.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-mon.stopCh:
			return
		case <-ticker.C:
			mon.sweep(ctx)
		}
	}
}

// Stop останавливает мониторинг
func (mon *RiskMonitor) Stop() {
	close(mon.stopCh)
}

// sweep делает один проход по всем активным позициям
func (mon *RiskMonitor) sweep(ctx context.Context) {
	started := time.Now()

	positions, err := mon.getPositions(ctx)
	if err != nil {
		RecordMarketDataError("positions")
		return
	}

	now := time.Now()
	var safe, atRisk, critical, stale int
	seen := make(map[int]struct{}, len(positions))

	for _, wp := range positions {
		seen[wp.ID] = struct{}{}

		quote, ok := mon.quotes.GetFresh(wp.Symbol, mon.config.QuoteMaxAge, now)
		if !ok {
			stale++
			mon.transition(wp, stateStale, models.LiquidationResult{}, 0)
			continue
		}
		QuoteAge.WithLabelValues(wp.Symbol).Set(now.Sub(quote.Timestamp).Seconds())

		result := mon.evaluate(wp, quote.Price)

		next := stateSafe
		switch {
		case result.IsCritical:
			next = stateCritical
			critical++
		case result.IsAtRisk:
			next = stateAtRisk
			atRisk++
		default:
			safe++
		}

		mon.transition(wp, next, result, quote.Price)

		if mon.broadcastFn != nil {
			mon.broadcastFn(RiskUpdate{
				PositionID: wp.ID,
				Symbol:     wp.Symbol,
				Price:      quote.Price,
				Result:     result,
				Timestamp:  now,
			})
		}
	}

	// Чистим состояния удалённых и приостановленных позиций,
	// чтобы при возврате они получили свежий переход
	mon.mu.Lock()
	for id := range mon.states {
		if _, ok := seen[id]; !ok {
			delete(mon.states, id)
		}
	}
	mon.mu.Unlock()

	UpdateWatchedPositions(safe, atRisk, critical, stale)
	MonitorCycleLatency.Observe(float64(time.Since(started).Microseconds()) / 1000)
}

// transition фиксирует новое состояние позиции и при смене зоны
// отправляет уведомление
func (mon *RiskMonitor) transition(wp models.WatchedPosition, next riskState, result models.LiquidationResult, price float64) {
	mon.mu.Lock()
	prev := mon.states[wp.ID]
	mon.states[wp.ID] = next
	mon.mu.Unlock()

	if prev == next {
		return
	}

	switch next {
	case stateCritical:
		mon.notify(wp, models.NotificationTypeCritical, models.SeverityError,
			fmt.Sprintf("💥 %s: distance to liquidation %.2f%% (price %.2f, liq %.2f)",
				wp.Symbol, result.DistanceFromLiquidation, price, result.LiquidationPrice),
			result, price)
	case stateAtRisk:
		// Выход из critical обратно в at_risk - не повод для AT_RISK алерта
		if prev != stateCritical {
			mon.notify(wp, models.NotificationTypeAtRisk, models.SeverityWarn,
				fmt.Sprintf("⚠️ %s: distance to liquidation %.2f%% (price %.2f, liq %.2f)",
					wp.Symbol, result.DistanceFromLiquidation, price, result.LiquidationPrice),
				result, price)
		}
	case stateSafe:
		if prev == stateAtRisk || prev == stateCritical {
			mon.notify(wp, models.NotificationTypeRecovered, models.SeverityInfo,
				fmt.Sprintf("✅ %s recovered: distance to liquidation %.2f%%",
					wp.Symbol, result.DistanceFromLiquidation),
				result, price)
		}
	case stateStale:
		mon.notify(wp, models.NotificationTypeDataError, models.SeverityError,
			fmt.Sprintf("❌ %s: no fresh quote, risk state unknown", wp.Symbol),
			models.LiquidationResult{}, 0)
	}
}

// notify отправляет уведомление в канал без блокировки
func (mon *RiskMonitor) notify(wp models.WatchedPosition, notifType, severity, message string, result models.LiquidationResult, price float64) {
	RecordNotification(notifType)

	if mon.notificationChan == nil {
		return
	}

	positionID := wp.ID
	notif := &models.Notification{
		Timestamp:  time.Now(),
		Type:       notifType,
		Severity:   severity,
		PositionID: &positionID,
		Message:    message,
		Meta: map[string]interface{}{
			"symbol":            wp.Symbol,
			"side":              wp.Side,
			"price":             price,
			"liquidation_price": result.LiquidationPrice,
			"distance_pct":      result.DistanceFromLiquidation,
		},
	}

	select {
	case mon.notificationChan <- notif:
	default:
		// Канал заполнен
	}
}
