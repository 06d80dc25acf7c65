package service

import (
	"testing"

	"liqcalc/internal/models"
)

// fakeInvalidator считает вызовы InvalidateSettings
type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateSettings() { f.calls++ }

func TestSettingsServiceUpdateSettings_Partial(t *testing.T) {
	repo := newMockSettingsRepo()
	invalidator := &fakeInvalidator{}
	svc := NewSettingsService(repo, invalidator, nil)

	threshold := 0.9
	updated, err := svc.UpdateSettings(&UpdateSettingsRequest{LiquidationThreshold: &threshold})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	if updated.LiquidationThreshold != 0.9 {
		t.Errorf("threshold = %v, want 0.9", updated.LiquidationThreshold)
	}
	// Непереданные поля остаются как были
	if !updated.ApplySpread {
		t.Error("apply_spread should keep its previous value")
	}
	if invalidator.calls != 1 {
		t.Errorf("invalidator called %d times, want 1", invalidator.calls)
	}
}

func TestSettingsServiceUpdateSettings_InvalidThreshold(t *testing.T) {
	repo := newMockSettingsRepo()
	invalidator := &fakeInvalidator{}
	svc := NewSettingsService(repo, invalidator, nil)

	for _, threshold := range []float64{0, 1, -0.5, 1.5} {
		if _, err := svc.UpdateSettings(&UpdateSettingsRequest{LiquidationThreshold: &threshold}); err == nil {
			t.Errorf("threshold %v should be rejected", threshold)
		}
	}

	if invalidator.calls != 0 {
		t.Error("invalidator must not be called on rejected update")
	}
}

func TestSettingsServiceUpdateSettings_Prefs(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := NewSettingsService(repo, nil, nil)

	prefs := models.NotificationPreferences{Critical: true}
	updated, err := svc.UpdateSettings(&UpdateSettingsRequest{NotificationPrefs: &prefs})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	if updated.NotificationPrefs.AtRisk || !updated.NotificationPrefs.Critical {
		t.Errorf("prefs = %+v, want only critical enabled", updated.NotificationPrefs)
	}
}

func TestSettingsServiceResetToDefaults(t *testing.T) {
	repo := newMockSettingsRepo()
	invalidator := &fakeInvalidator{}
	svc := NewSettingsService(repo, invalidator, nil)

	threshold := 0.5
	if _, err := svc.UpdateSettings(&UpdateSettingsRequest{LiquidationThreshold: &threshold}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	if err := svc.ResetToDefaults(); err != nil {
		t.Fatalf("ResetToDefaults failed: %v", err)
	}

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.LiquidationThreshold != models.DefaultRiskSettings().LiquidationThreshold {
		t.Errorf("threshold = %v, want default", settings.LiquidationThreshold)
	}
	if invalidator.calls != 2 {
		t.Errorf("invalidator called %d times, want 2", invalidator.calls)
	}
}
