package service

import (
	"context"
	"time"

	"liqcalc/internal/models"
	"liqcalc/internal/repository"
)

// PositionRepositoryInterface определяет интерфейс репозитория позиций
type PositionRepositoryInterface interface {
	Create(position *models.WatchedPosition) error
	GetByID(id int) (*models.WatchedPosition, error)
	GetAll() ([]*models.WatchedPosition, error)
	GetActive() ([]*models.WatchedPosition, error)
	GetBySymbol(symbol string) ([]*models.WatchedPosition, error)
	ActiveSymbols() ([]string, error)
	Update(position *models.WatchedPosition) error
	UpdateStatus(id int, status string) error
	Delete(id int) error
	Count() (int, error)
	CountActive() (int, error)
}

// SettingsRepositoryInterface определяет интерфейс репозитория настроек
type SettingsRepositoryInterface interface {
	Get() (*models.RiskSettings, error)
	Update(settings *models.RiskSettings) error
	UpdateThreshold(threshold float64) error
	UpdateApplySpread(apply bool) error
	GetNotificationPrefs() (*models.NotificationPreferences, error)
	ResetToDefaults() error
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	GetRecent(limit int) ([]*models.Notification, error)
	GetByTypes(types []string, limit int) ([]*models.Notification, error)
	GetByPosition(positionID, limit int) ([]*models.Notification, error)
	DeleteAll() error
	DeleteOlderThan(cutoff time.Time) (int64, error)
	Count() (int, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ PositionRepositoryInterface = (*repository.PositionRepository)(nil)
var _ SettingsRepositoryInterface = (*repository.SettingsRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)

// ============ Интерфейсы поставщиков рыночных данных ============

// ParamsProvider отдаёт снимок параметров ликвидности по pair index.
// Реализуется кэшем из internal/marketdata.
type ParamsProvider interface {
	Get(ctx context.Context, pairIndex int) (models.MarketLiquidityParams, bool)
}

// QuoteProvider отдаёт последнюю известную котировку символа.
// Реализуется engine.QuoteBook.
type QuoteProvider interface {
	Get(symbol string) (models.Quote, bool)
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// RiskServiceInterface определяет интерфейс сервиса расчёта риска
type RiskServiceInterface interface {
	CalculateRisk(ctx context.Context, req *CalculateRiskRequest) (*models.LiquidationResult, error)
	CalculateSpread(ctx context.Context, req *CalculateSpreadRequest) (*models.SpreadResult, error)
	EvaluateWatched(wp models.WatchedPosition, currentPrice float64) models.LiquidationResult
	Markets() []models.MarketInfo
	PairIndex(symbol string) int
}

// PositionServiceInterface определяет интерфейс сервиса позиций
type PositionServiceInterface interface {
	CreatePosition(req *CreatePositionRequest) (*models.WatchedPosition, error)
	GetPosition(id int) (*models.WatchedPosition, error)
	GetPositions() ([]*models.WatchedPosition, error)
	GetActivePositions() ([]*models.WatchedPosition, error)
	UpdatePosition(id int, req *UpdatePositionRequest) (*models.WatchedPosition, error)
	DeletePosition(id int) error
	PausePosition(id int) error
	ResumePosition(id int) error
}

// SettingsServiceInterface определяет интерфейс сервиса настроек
type SettingsServiceInterface interface {
	GetSettings() (*models.RiskSettings, error)
	UpdateSettings(req *UpdateSettingsRequest) (*models.RiskSettings, error)
	ResetToDefaults() error
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	GetNotifications(types []string, limit int) ([]*models.Notification, error)
	ClearNotifications() error
	CreateNotification(n *models.Notification) error
	GetNotificationCount() (int, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ RiskServiceInterface = (*RiskService)(nil)
var _ PositionServiceInterface = (*PositionService)(nil)
var _ SettingsServiceInterface = (*SettingsService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
