package service

import (
	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

// SettingsInvalidator - уведомляется об изменении настроек.
// Реализуется RiskService, который держит снимок настроек с TTL.
type SettingsInvalidator interface {
	InvalidateSettings()
}

// SettingsService - бизнес-логика управления настройками движка риска
type SettingsService struct {
	settingsRepo SettingsRepositoryInterface
	invalidator  SettingsInvalidator
	logger       *utils.Logger
}

// NewSettingsService создает новый экземпляр сервиса настроек.
// invalidator может быть nil (юнит-тесты, standalone использование).
func NewSettingsService(
	settingsRepo SettingsRepositoryInterface,
	invalidator SettingsInvalidator,
	logger *utils.Logger,
) *SettingsService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &SettingsService{
		settingsRepo: settingsRepo,
		invalidator:  invalidator,
		logger:       logger.WithComponent("service.settings"),
	}
}

// UpdateSettingsRequest - частичное обновление настроек.
// Обновляются только переданные поля.
type UpdateSettingsRequest struct {
	LiquidationThreshold *float64                        `json:"liquidation_threshold,omitempty"`
	ApplySpread          *bool                           `json:"apply_spread,omitempty"`
	NotificationPrefs    *models.NotificationPreferences `json:"notification_prefs,omitempty"`
}

// GetSettings возвращает текущие настройки
func (s *SettingsService) GetSettings() (*models.RiskSettings, error) {
	return s.settingsRepo.Get()
}

// UpdateSettings применяет частичное обновление настроек.
// Порог валидируется в (0, 1): 0 или 1 ломают модель ликвидации.
func (s *SettingsService) UpdateSettings(req *UpdateSettingsRequest) (*models.RiskSettings, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}

	if req.LiquidationThreshold != nil {
		if err := utils.ValidateThreshold(*req.LiquidationThreshold); err != nil {
			return nil, err
		}
		settings.LiquidationThreshold = *req.LiquidationThreshold
	}
	if req.ApplySpread != nil {
		settings.ApplySpread = *req.ApplySpread
	}
	if req.NotificationPrefs != nil {
		settings.NotificationPrefs = *req.NotificationPrefs
	}

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("risk settings updated",
		utils.Float64("liquidation_threshold", settings.LiquidationThreshold),
		utils.Bool("apply_spread", settings.ApplySpread),
	)

	return settings, nil
}

// ResetToDefaults возвращает настройки к значениям по умолчанию
func (s *SettingsService) ResetToDefaults() error {
	if err := s.settingsRepo.ResetToDefaults(); err != nil {
		return err
	}
	s.invalidate()

	s.logger.Info("risk settings reset to defaults")
	return nil
}

func (s *SettingsService) invalidate() {
	if s.invalidator != nil {
		s.invalidator.InvalidateSettings()
	}
}
