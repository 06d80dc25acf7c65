package models

import (
	"errors"
	"testing"
)

// ============================================================
// Тесты Position
// ============================================================

func TestNewPosition_Valid(t *testing.T) {
	tests := []struct {
		name       string
		side       string
		collateral float64
		leverage   float64
		entry      float64
		current    float64
	}{
		{"long 10x", SideLong, 1000, 10, 50000, 51000},
		{"short 10x", SideShort, 1000, 10, 50000, 49000},
		{"min leverage", SideLong, 100, 1, 50000, 50000},
		{"max leverage", SideLong, 100, 500, 50000, 50000},
		{"fractional leverage", SideShort, 250.5, 12.5, 1850.25, 1900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.side, tt.collateral, tt.leverage, tt.entry, tt.current)
			if err != nil {
				t.Fatalf("NewPosition returned error: %v", err)
			}
			if pos.Side != tt.side {
				t.Errorf("expected side %s, got %s", tt.side, pos.Side)
			}
			if pos.Liquidity != nil {
				t.Error("new position should not carry liquidity params")
			}
		})
	}
}

func TestNewPosition_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		side       string
		collateral float64
		leverage   float64
		entry      float64
		current    float64
		wantErr    error
	}{
		{"bad side", "sideways", 1000, 10, 50000, 51000, ErrInvalidSide},
		{"empty side", "", 1000, 10, 50000, 51000, ErrInvalidSide},
		{"zero collateral", SideLong, 0, 10, 50000, 51000, ErrInvalidCollateral},
		{"negative collateral", SideLong, -5, 10, 50000, 51000, ErrInvalidCollateral},
		{"zero leverage", SideLong, 1000, 0, 50000, 51000, ErrInvalidLeverage},
		{"leverage below min", SideLong, 1000, 0.5, 50000, 51000, ErrInvalidLeverage},
		{"leverage above max", SideLong, 1000, 501, 50000, 51000, ErrInvalidLeverage},
		{"zero entry", SideLong, 1000, 10, 0, 51000, ErrInvalidEntryPrice},
		{"negative entry", SideLong, 1000, 10, -1, 51000, ErrInvalidEntryPrice},
		{"zero current price", SideLong, 1000, 10, 50000, 0, ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPosition(tt.side, tt.collateral, tt.leverage, tt.entry, tt.current)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPosition_Size(t *testing.T) {
	pos, err := NewPosition(SideLong, 1000, 10, 50000, 51000)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}

	if size := pos.Size(); size != 10000 {
		t.Errorf("expected size 10000, got %f", size)
	}
}

func TestPosition_WithLiquidity_DoesNotMutate(t *testing.T) {
	pos, err := NewPosition(SideShort, 500, 20, 3000, 2950)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}

	params := &MarketLiquidityParams{PairIndex: 1, BaseSpread: 0.0002}
	withLiq := pos.WithLiquidity(params)

	// Исходная позиция не должна измениться
	if pos.Liquidity != nil {
		t.Error("WithLiquidity mutated the original position")
	}
	if withLiq.Liquidity != params {
		t.Error("WithLiquidity did not attach params to the copy")
	}
	if withLiq.Side != pos.Side || withLiq.Collateral != pos.Collateral {
		t.Error("WithLiquidity changed unrelated fields")
	}
}

func TestPosition_IsLong(t *testing.T) {
	long, _ := NewPosition(SideLong, 100, 2, 10, 10)
	short, _ := NewPosition(SideShort, 100, 2, 10, 10)

	if !long.IsLong() {
		t.Error("long position reported as not long")
	}
	if short.IsLong() {
		t.Error("short position reported as long")
	}
}

// ============================================================
// Тесты RiskSettings
// ============================================================

func TestDefaultRiskSettings(t *testing.T) {
	s := DefaultRiskSettings()

	if s.LiquidationThreshold != 0.85 {
		t.Errorf("expected threshold 0.85, got %f", s.LiquidationThreshold)
	}
	if !s.ApplySpread {
		t.Error("spread should be applied by default")
	}
	if !s.NotificationPrefs.AtRisk || !s.NotificationPrefs.Critical {
		t.Error("risk notifications should be enabled by default")
	}
}

// ============================================================
// Тесты констант классификации
// ============================================================

func TestRiskThresholdOrdering(t *testing.T) {
	// Критическая зона обязана быть строгим подмножеством зоны риска
	if CriticalDistancePct >= AtRiskDistancePct {
		t.Errorf("critical threshold %f must be below at-risk threshold %f",
			CriticalDistancePct, AtRiskDistancePct)
	}
}
