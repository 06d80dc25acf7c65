package engine

import (
	"context"
	"testing"
	"time"

	"liqcalc/internal/models"
)

// monitorFixture - обвязка для тестов монитора с ручным управлением sweep
type monitorFixture struct {
	mon        *RiskMonitor
	quotes     *QuoteBook
	positions  []models.WatchedPosition
	results    map[int]models.LiquidationResult
	notifCh    chan *models.Notification
	broadcasts []RiskUpdate
}

func newMonitorFixture() *monitorFixture {
	f := &monitorFixture{
		quotes:  NewQuoteBook(4),
		results: make(map[int]models.LiquidationResult),
		notifCh: make(chan *models.Notification, 16),
	}

	f.mon = NewRiskMonitor(
		f.quotes,
		func(ctx context.Context) ([]models.WatchedPosition, error) {
			return f.positions, nil
		},
		func(wp models.WatchedPosition, price float64) models.LiquidationResult {
			return f.results[wp.ID]
		},
		f.notifCh,
		func(update RiskUpdate) {
			f.broadcasts = append(f.broadcasts, update)
		},
		DefaultMonitorConfig(),
	)
	return f
}

func (f *monitorFixture) drainNotifications() []*models.Notification {
	var out []*models.Notification
	for {
		select {
		case n := <-f.notifCh:
			out = append(out, n)
		default:
			return out
		}
	}
}

func watched(id int, symbol string) models.WatchedPosition {
	return models.WatchedPosition{
		ID:         id,
		Symbol:     symbol,
		Side:       models.SideLong,
		Collateral: 1000,
		Leverage:   10,
		EntryPrice: 50000,
		Status:     models.PositionStatusActive,
	}
}

func TestRiskMonitor_EdgeTriggeredAtRisk(t *testing.T) {
	f := newMonitorFixture()
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT")}
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 47000, Timestamp: time.Now()})
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 8, IsAtRisk: true}

	ctx := context.Background()
	f.mon.sweep(ctx)
	f.mon.sweep(ctx)
	f.mon.sweep(ctx)

	notifs := f.drainNotifications()
	if len(notifs) != 1 {
		t.Fatalf("expected exactly one AT_RISK on zone entry, got %d", len(notifs))
	}
	if notifs[0].Type != models.NotificationTypeAtRisk {
		t.Errorf("type = %s, want %s", notifs[0].Type, models.NotificationTypeAtRisk)
	}
	if notifs[0].PositionID == nil || *notifs[0].PositionID != 1 {
		t.Error("notification must carry the position ID")
	}
}

func TestRiskMonitor_CriticalAndRecovery(t *testing.T) {
	f := newMonitorFixture()
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT")}
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 46000, Timestamp: time.Now()})

	ctx := context.Background()

	// safe → critical
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 3, IsAtRisk: true, IsCritical: true}
	f.mon.sweep(ctx)

	// critical → at_risk: отдельного AT_RISK алерта быть не должно
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 8, IsAtRisk: true}
	f.mon.sweep(ctx)

	// at_risk → safe
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 20}
	f.mon.sweep(ctx)

	notifs := f.drainNotifications()
	if len(notifs) != 2 {
		t.Fatalf("expected CRITICAL then RECOVERED, got %d notifications", len(notifs))
	}
	if notifs[0].Type != models.NotificationTypeCritical {
		t.Errorf("first = %s, want CRITICAL", notifs[0].Type)
	}
	if notifs[1].Type != models.NotificationTypeRecovered {
		t.Errorf("second = %s, want RECOVERED", notifs[1].Type)
	}
}

func TestRiskMonitor_StaleQuote(t *testing.T) {
	f := newMonitorFixture()
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT")}
	// Котировка старше QuoteMaxAge
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 47000, Timestamp: time.Now().Add(-time.Hour)})

	ctx := context.Background()
	f.mon.sweep(ctx)
	f.mon.sweep(ctx)

	notifs := f.drainNotifications()
	if len(notifs) != 1 {
		t.Fatalf("expected one DATA_ERROR for stale quote, got %d", len(notifs))
	}
	if notifs[0].Type != models.NotificationTypeDataError {
		t.Errorf("type = %s, want DATA_ERROR", notifs[0].Type)
	}
	if len(f.broadcasts) != 0 {
		t.Error("stale positions must not be broadcast")
	}
}

func TestRiskMonitor_BroadcastsEverySweep(t *testing.T) {
	f := newMonitorFixture()
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT"), watched(2, "ETHUSDT")}
	now := time.Now()
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 51000, Timestamp: now})
	f.quotes.Update(models.Quote{Symbol: "ETHUSDT", Price: 3000, Timestamp: now})
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 15}
	f.results[2] = models.LiquidationResult{DistanceFromLiquidation: 25}

	ctx := context.Background()
	f.mon.sweep(ctx)
	f.mon.sweep(ctx)

	// В отличие от уведомлений, пуши в WebSocket идут каждым проходом
	if len(f.broadcasts) != 4 {
		t.Fatalf("expected 4 broadcasts (2 positions × 2 sweeps), got %d", len(f.broadcasts))
	}
	if f.broadcasts[0].Price != 51000 {
		t.Errorf("broadcast price = %f, want 51000", f.broadcasts[0].Price)
	}
}

func TestRiskMonitor_ForgetsRemovedPositions(t *testing.T) {
	f := newMonitorFixture()
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT")}
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 47000, Timestamp: time.Now()})
	f.results[1] = models.LiquidationResult{DistanceFromLiquidation: 8, IsAtRisk: true}

	ctx := context.Background()
	f.mon.sweep(ctx) // AT_RISK

	// Позиция снята с мониторинга, потом возвращена: алерт должен повториться
	f.positions = nil
	f.mon.sweep(ctx)
	f.positions = []models.WatchedPosition{watched(1, "BTCUSDT")}
	f.quotes.Update(models.Quote{Symbol: "BTCUSDT", Price: 47000, Timestamp: time.Now()})
	f.mon.sweep(ctx)

	notifs := f.drainNotifications()
	if len(notifs) != 2 {
		t.Fatalf("expected AT_RISK to fire again after re-add, got %d notifications", len(notifs))
	}
}

func TestRiskMonitor_StartStop(t *testing.T) {
	f := newMonitorFixture()

	cfg := DefaultMonitorConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	f.mon = NewRiskMonitor(f.quotes,
		func(ctx context.Context) ([]models.WatchedPosition, error) { return nil, nil },
		func(wp models.WatchedPosition, price float64) models.LiquidationResult {
			return models.LiquidationResult{}
		},
		nil, nil, cfg)

	done := make(chan struct{})
	go func() {
		f.mon.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	f.mon.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
