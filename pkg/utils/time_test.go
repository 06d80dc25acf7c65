package utils

import (
	"testing"
	"time"
)

func TestGetDayStartFrom(t *testing.T) {
	input := time.Date(2024, 1, 15, 14, 30, 45, 123, time.UTC)
	expected := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	if got := GetDayStartFrom(input); !got.Equal(expected) {
		t.Errorf("GetDayStartFrom = %v, want %v", got, expected)
	}
}

func TestGetDayEndFrom(t *testing.T) {
	input := time.Date(2024, 1, 15, 14, 30, 45, 0, time.UTC)
	expected := time.Date(2024, 1, 15, 23, 59, 59, 999999999, time.UTC)

	if got := GetDayEndFrom(input); !got.Equal(expected) {
		t.Errorf("GetDayEndFrom = %v, want %v", got, expected)
	}
}

func TestGetDayStartFrom_NonUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 по UTC+5 = 21:30 предыдущего дня по UTC
	input := time.Date(2024, 1, 15, 2, 30, 0, 0, loc)
	expected := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	if got := GetDayStartFrom(input); !got.Equal(expected) {
		t.Errorf("GetDayStartFrom = %v, want %v", got, expected)
	}
}

func TestTimeRange_Contains(t *testing.T) {
	tr := TimeRange{
		Start: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC),
	}

	tests := []struct {
		name     string
		input    time.Time
		expected bool
	}{
		{"inside", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), true},
		{"at start", tr.Start, true},
		{"at end", tr.End, true},
		{"before", time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC), false},
		{"after", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Contains(tt.input); got != tt.expected {
				t.Errorf("Contains(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTimeRange_Duration(t *testing.T) {
	tr := TimeRange{
		Start: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC),
	}

	if got := tr.Duration(); got != 2*time.Hour {
		t.Errorf("Duration = %v, want 2h", got)
	}
}

func TestGetLastNDays(t *testing.T) {
	tr := GetLastNDays(7)

	if tr.Start.After(tr.End) {
		t.Error("range start after end")
	}
	// 7 дней включая сегодня: от начала дня -6 до конца сегодняшнего
	if d := tr.Duration(); d < 6*24*time.Hour || d > 7*24*time.Hour {
		t.Errorf("unexpected duration %v for 7 days", d)
	}

	// Некорректный n откатывается к одному дню
	tr = GetLastNDays(0)
	if d := tr.Duration(); d > 24*time.Hour {
		t.Errorf("n=0 should fall back to one day, got %v", d)
	}
}

func TestGetLastNHours(t *testing.T) {
	tr := GetLastNHours(6)
	if got := tr.Duration(); got != 6*time.Hour {
		t.Errorf("Duration = %v, want 6h", got)
	}

	tr = GetLastNHours(-1)
	if got := tr.Duration(); got != time.Hour {
		t.Errorf("negative n should fall back to 1h, got %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Duration
		expected string
	}{
		{"seconds", 45 * time.Second, "45s"},
		{"minutes and seconds", 5*time.Minute + 30*time.Second, "5m30s"},
		{"hours and minutes", 2*time.Hour + 15*time.Minute, "2h15m0s"},
		{"whole hours", 3 * time.Hour, "3h0m0s"},
		{"negative", -45 * time.Second, "45s"},
		{"drops sub-second noise", 5*time.Minute + 30*time.Second + 123*time.Millisecond, "5m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.input); got != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUnixMillisRoundTrip(t *testing.T) {
	ms := UnixMillis()
	restored := FromUnixMillis(ms)

	if restored.UnixMilli() != ms {
		t.Errorf("round trip lost precision: %d != %d", restored.UnixMilli(), ms)
	}
	if restored.Location() != time.UTC {
		t.Error("FromUnixMillis must return UTC time")
	}
}
