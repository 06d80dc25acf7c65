package models

import "time"

// RiskSettings представляет глобальные настройки движка риска
type RiskSettings struct {
	ID int `json:"id" db:"id"`

	// Порог ликвидации: доля залога, потеря которой закрывает позицию.
	// Протокольная константа, но конфигурируемая (default 0.85)
	LiquidationThreshold float64 `json:"liquidation_threshold" db:"liquidation_threshold"`

	// Учитывать динамический спред при расчёте (путь со спредом)
	ApplySpread bool `json:"apply_spread" db:"apply_spread"`

	NotificationPrefs NotificationPreferences `json:"notification_prefs" db:"notification_prefs"` // JSON в БД
	UpdatedAt         time.Time               `json:"updated_at" db:"updated_at"`
}

// NotificationPreferences представляет настройки уведомлений
type NotificationPreferences struct {
	AtRisk    bool `json:"at_risk"`
	Critical  bool `json:"critical"`
	Recovered bool `json:"recovered"`
	DataError bool `json:"data_error"`
}

// DefaultRiskSettings возвращает настройки по умолчанию
func DefaultRiskSettings() RiskSettings {
	return RiskSettings{
		LiquidationThreshold: 0.85,
		ApplySpread:          true,
		NotificationPrefs: NotificationPreferences{
			AtRisk:    true,
			Critical:  true,
			Recovered: true,
			DataError: true,
		},
	}
}
