package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"liqcalc/internal/models"
)

// Ошибки репозитория настроек
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsRepository - работа с таблицей settings
//
// В таблице живёт ровно одна запись (id=1) с глобальными настройками
// движка риска. Чтение при отсутствии записи создаёт её с дефолтами.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает новый экземпляр репозитория
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает глобальные настройки (всегда id=1, одна запись)
func (r *SettingsRepository) Get() (*models.RiskSettings, error) {
	query := `
		SELECT id, liquidation_threshold, apply_spread, notification_prefs, updated_at
		FROM settings
		WHERE id = 1`

	settings := &models.RiskSettings{}
	var prefsJSON []byte
	err := r.db.QueryRow(query).Scan(
		&settings.ID,
		&settings.LiquidationThreshold,
		&settings.ApplySpread,
		&prefsJSON,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.createDefault()
		}
		return nil, err
	}

	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &settings.NotificationPrefs); err != nil {
			return nil, err
		}
	} else {
		settings.NotificationPrefs = models.DefaultRiskSettings().NotificationPrefs
	}

	return settings, nil
}

// Update обновляет настройки
func (r *SettingsRepository) Update(settings *models.RiskSettings) error {
	prefsJSON, err := json.Marshal(settings.NotificationPrefs)
	if err != nil {
		return err
	}

	query := `
		UPDATE settings
		SET liquidation_threshold = $1, apply_spread = $2, notification_prefs = $3, updated_at = $4
		WHERE id = 1`

	settings.UpdatedAt = time.Now()

	result, err := r.db.Exec(query,
		settings.LiquidationThreshold,
		settings.ApplySpread,
		prefsJSON,
		settings.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateThreshold обновляет только порог ликвидации
func (r *SettingsRepository) UpdateThreshold(threshold float64) error {
	query := `
		UPDATE settings
		SET liquidation_threshold = $1, updated_at = $2
		WHERE id = 1`

	result, err := r.db.Exec(query, threshold, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateApplySpread переключает путь расчёта со спредом
func (r *SettingsRepository) UpdateApplySpread(apply bool) error {
	query := `
		UPDATE settings
		SET apply_spread = $1, updated_at = $2
		WHERE id = 1`

	result, err := r.db.Exec(query, apply, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// GetNotificationPrefs возвращает только настройки уведомлений
func (r *SettingsRepository) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	query := `SELECT notification_prefs FROM settings WHERE id = 1`

	var prefsJSON []byte
	err := r.db.QueryRow(query).Scan(&prefsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			prefs := models.DefaultRiskSettings().NotificationPrefs
			return &prefs, nil
		}
		return nil, err
	}

	var prefs models.NotificationPreferences
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
			return nil, err
		}
	} else {
		prefs = models.DefaultRiskSettings().NotificationPrefs
	}

	return &prefs, nil
}

// ResetToDefaults сбрасывает настройки к значениям по умолчанию
func (r *SettingsRepository) ResetToDefaults() error {
	defaults := models.DefaultRiskSettings()
	defaults.ID = 1
	return r.Update(&defaults)
}

// createDefault создает запись настроек с дефолтными значениями
func (r *SettingsRepository) createDefault() (*models.RiskSettings, error) {
	defaults := models.DefaultRiskSettings()
	defaults.ID = 1
	defaults.UpdatedAt = time.Now()

	prefsJSON, err := json.Marshal(defaults.NotificationPrefs)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO settings (id, liquidation_threshold, apply_spread, notification_prefs, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	_, err = r.db.Exec(query,
		defaults.LiquidationThreshold,
		defaults.ApplySpread,
		prefsJSON,
		defaults.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &defaults, nil
}
