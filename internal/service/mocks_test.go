package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"liqcalc/internal/models"
	"liqcalc/internal/repository"
)

// ============================================================
// Моки репозиториев и поставщиков для юнит-тестов сервисов
// ============================================================

type mockPositionRepo struct {
	mu        sync.Mutex
	positions map[int]*models.WatchedPosition
	nextID    int
	failWith  error
}

func newMockPositionRepo() *mockPositionRepo {
	return &mockPositionRepo{
		positions: make(map[int]*models.WatchedPosition),
		nextID:    1,
	}
}

func (m *mockPositionRepo) Create(position *models.WatchedPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	position.ID = m.nextID
	position.CreatedAt = time.Now()
	position.UpdatedAt = position.CreatedAt
	m.nextID++
	stored := *position
	m.positions[position.ID] = &stored
	return nil
}

func (m *mockPositionRepo) GetByID(id int) (*models.WatchedPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	position, ok := m.positions[id]
	if !ok {
		return nil, repository.ErrPositionNotFound
	}
	copied := *position
	return &copied, nil
}

func (m *mockPositionRepo) GetAll() ([]*models.WatchedPosition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]*models.WatchedPosition, 0, len(m.positions))
	for _, p := range m.positions {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPositionRepo) GetActive() ([]*models.WatchedPosition, error) {
	all, err := m.GetAll()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, p := range all {
		if p.Status == models.PositionStatusActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (m *mockPositionRepo) GetBySymbol(symbol string) ([]*models.WatchedPosition, error) {
	all, err := m.GetAll()
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, p := range all {
		if p.Symbol == symbol {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (m *mockPositionRepo) ActiveSymbols() ([]string, error) {
	active, err := m.GetActive()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var symbols []string
	for _, p := range active {
		if _, ok := seen[p.Symbol]; !ok {
			seen[p.Symbol] = struct{}{}
			symbols = append(symbols, p.Symbol)
		}
	}
	return symbols, nil
}

func (m *mockPositionRepo) Update(position *models.WatchedPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.positions[position.ID]; !ok {
		return repository.ErrPositionNotFound
	}
	position.UpdatedAt = time.Now()
	stored := *position
	m.positions[position.ID] = &stored
	return nil
}

func (m *mockPositionRepo) UpdateStatus(id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	position, ok := m.positions[id]
	if !ok {
		return repository.ErrPositionNotFound
	}
	position.Status = status
	position.UpdatedAt = time.Now()
	return nil
}

func (m *mockPositionRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.positions[id]; !ok {
		return repository.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *mockPositionRepo) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.positions), nil
}

func (m *mockPositionRepo) CountActive() (int, error) {
	active, err := m.GetActive()
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings models.RiskSettings
	getCalls int
	failWith error
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: models.DefaultRiskSettings()}
}

func (m *mockSettingsRepo) Get() (*models.RiskSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	copied := m.settings
	return &copied, nil
}

func (m *mockSettingsRepo) Update(settings *models.RiskSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.settings = *settings
	m.settings.UpdatedAt = time.Now()
	return nil
}

func (m *mockSettingsRepo) UpdateThreshold(threshold float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.settings.LiquidationThreshold = threshold
	return nil
}

func (m *mockSettingsRepo) UpdateApplySpread(apply bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.settings.ApplySpread = apply
	return nil
}

func (m *mockSettingsRepo) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	copied := m.settings.NotificationPrefs
	return &copied, nil
}

func (m *mockSettingsRepo) ResetToDefaults() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.settings = models.DefaultRiskSettings()
	return nil
}

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
	nextID        int
	failWith      error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1}
}

func (m *mockNotificationRepo) Create(n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	n.ID = m.nextID
	m.nextID++
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	stored := *n
	m.notifications = append(m.notifications, &stored)
	return nil
}

func (m *mockNotificationRepo) GetRecent(limit int) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if limit <= 0 || limit > len(m.notifications) {
		limit = len(m.notifications)
	}
	out := make([]*models.Notification, 0, limit)
	for i := len(m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *m.notifications[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockNotificationRepo) GetByTypes(types []string, limit int) ([]*models.Notification, error) {
	all, err := m.GetRecent(0)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}
	out := all[:0]
	for _, n := range all {
		if _, ok := wanted[n.Type]; ok {
			out = append(out, n)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) GetByPosition(positionID, limit int) ([]*models.Notification, error) {
	all, err := m.GetRecent(0)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, n := range all {
		if n.PositionID != nil && *n.PositionID == positionID {
			out = append(out, n)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.notifications = nil
	return nil
}

func (m *mockNotificationRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	kept := m.notifications[:0]
	var deleted int64
	for _, n := range m.notifications {
		if n.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return deleted, nil
}

func (m *mockNotificationRepo) Count() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.notifications), nil
}

// mockParamsProvider - статический снимок параметров ликвидности
type mockParamsProvider struct {
	params map[int]models.MarketLiquidityParams
}

func (m *mockParamsProvider) Get(_ context.Context, pairIndex int) (models.MarketLiquidityParams, bool) {
	p, ok := m.params[pairIndex]
	return p, ok
}

// mockQuoteProvider - статическая книга котировок
type mockQuoteProvider struct {
	quotes map[string]models.Quote
}

func (m *mockQuoteProvider) Get(symbol string) (models.Quote, bool) {
	q, ok := m.quotes[symbol]
	return q, ok
}
