package handlers

import (
	"context"

	"liqcalc/internal/models"
	"liqcalc/internal/service"
)

// ============================================================
// Моки сервисов для тестов handlers.
// Поведение задаётся функциональными полями; незаданное поле
// означает "в этом тесте метод не вызывается"
// ============================================================

type mockRiskService struct {
	calculateRiskFn   func(ctx context.Context, req *service.CalculateRiskRequest) (*models.LiquidationResult, error)
	calculateSpreadFn func(ctx context.Context, req *service.CalculateSpreadRequest) (*models.SpreadResult, error)
	marketsFn         func() []models.MarketInfo
	pairIndexFn       func(symbol string) int
}

func (m *mockRiskService) CalculateRisk(ctx context.Context, req *service.CalculateRiskRequest) (*models.LiquidationResult, error) {
	return m.calculateRiskFn(ctx, req)
}

func (m *mockRiskService) CalculateSpread(ctx context.Context, req *service.CalculateSpreadRequest) (*models.SpreadResult, error) {
	return m.calculateSpreadFn(ctx, req)
}

func (m *mockRiskService) EvaluateWatched(wp models.WatchedPosition, currentPrice float64) models.LiquidationResult {
	return models.LiquidationResult{}
}

func (m *mockRiskService) Markets() []models.MarketInfo {
	if m.marketsFn == nil {
		return nil
	}
	return m.marketsFn()
}

func (m *mockRiskService) PairIndex(symbol string) int {
	if m.pairIndexFn == nil {
		return 0
	}
	return m.pairIndexFn(symbol)
}

type mockPositionService struct {
	createFn    func(req *service.CreatePositionRequest) (*models.WatchedPosition, error)
	getFn       func(id int) (*models.WatchedPosition, error)
	getAllFn    func() ([]*models.WatchedPosition, error)
	getActiveFn func() ([]*models.WatchedPosition, error)
	updateFn    func(id int, req *service.UpdatePositionRequest) (*models.WatchedPosition, error)
	deleteFn    func(id int) error
	pauseFn     func(id int) error
	resumeFn    func(id int) error
}

func (m *mockPositionService) CreatePosition(req *service.CreatePositionRequest) (*models.WatchedPosition, error) {
	return m.createFn(req)
}

func (m *mockPositionService) GetPosition(id int) (*models.WatchedPosition, error) {
	return m.getFn(id)
}

func (m *mockPositionService) GetPositions() ([]*models.WatchedPosition, error) {
	return m.getAllFn()
}

func (m *mockPositionService) GetActivePositions() ([]*models.WatchedPosition, error) {
	return m.getActiveFn()
}

func (m *mockPositionService) UpdatePosition(id int, req *service.UpdatePositionRequest) (*models.WatchedPosition, error) {
	return m.updateFn(id, req)
}

func (m *mockPositionService) DeletePosition(id int) error { return m.deleteFn(id) }
func (m *mockPositionService) PausePosition(id int) error  { return m.pauseFn(id) }
func (m *mockPositionService) ResumePosition(id int) error { return m.resumeFn(id) }

type mockSettingsService struct {
	getFn    func() (*models.RiskSettings, error)
	updateFn func(req *service.UpdateSettingsRequest) (*models.RiskSettings, error)
	resetFn  func() error
}

func (m *mockSettingsService) GetSettings() (*models.RiskSettings, error) { return m.getFn() }

func (m *mockSettingsService) UpdateSettings(req *service.UpdateSettingsRequest) (*models.RiskSettings, error) {
	return m.updateFn(req)
}

func (m *mockSettingsService) ResetToDefaults() error { return m.resetFn() }

type mockNotificationService struct {
	getFn   func(types []string, limit int) ([]*models.Notification, error)
	clearFn func() error
	countFn func() (int, error)
}

func (m *mockNotificationService) GetNotifications(types []string, limit int) ([]*models.Notification, error) {
	return m.getFn(types, limit)
}

func (m *mockNotificationService) ClearNotifications() error { return m.clearFn() }

func (m *mockNotificationService) CreateNotification(n *models.Notification) error { return nil }

func (m *mockNotificationService) GetNotificationCount() (int, error) {
	if m.countFn == nil {
		return 0, nil
	}
	return m.countFn()
}

type mockQuotes struct {
	quotes map[string]models.Quote
}

func (m *mockQuotes) Get(symbol string) (models.Quote, bool) {
	q, ok := m.quotes[symbol]
	return q, ok
}
