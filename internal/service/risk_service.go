package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"liqcalc/internal/engine"
	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

// Ошибки сервиса риска
var (
	ErrNoCurrentPrice     = errors.New("no current price available for symbol")
	ErrNoLiquidityParams  = errors.New("no liquidity params available for market")
	ErrUnknownSide        = errors.New("side must be long or short")
	ErrInvalidPositionSz  = errors.New("position size must be positive")
)

// settingsTTL - как долго RiskService доверяет прочитанным настройкам.
// Монитор дергает EvaluateWatched на каждую позицию каждый tick,
// ходить в БД за порогом на каждый вызов нельзя.
const settingsTTL = 5 * time.Second

// RiskService - слой композиции над чистым движком.
//
// Склеивает: реестр рынков (символ → pair index), кэш параметров
// ликвидности, книгу котировок и настройки. Сам расчёт полностью
// делегируется internal/engine. Stateless по отношению к позициям.
type RiskService struct {
	settingsRepo SettingsRepositoryInterface
	params       ParamsProvider
	quotes       QuoteProvider
	logger       *utils.Logger

	// Реестр рынков. Символы вне реестра получают pair index 0
	markets     []models.MarketInfo
	symbolIndex map[string]int

	// Снимок настроек с коротким TTL
	settingsMu   sync.RWMutex
	settings     models.RiskSettings
	settingsAt   time.Time
}

// CalculateRiskRequest - запрос ad-hoc расчёта риска
type CalculateRiskRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Collateral float64 `json:"collateral"`
	Leverage   float64 `json:"leverage"`
	EntryPrice float64 `json:"entry_price"`

	// 0 = взять последнюю котировку символа
	CurrentPrice float64 `json:"current_price,omitempty"`

	// nil = следовать глобальной настройке apply_spread
	ApplySpread *bool `json:"apply_spread,omitempty"`
}

// CalculateSpreadRequest - запрос только модели спреда
type CalculateSpreadRequest struct {
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	PositionSize float64 `json:"position_size"` // в котируемой валюте

	// nil = разрешить по символу через реестр
	PairIndex *int `json:"pair_index,omitempty"`
}

// NewRiskService создает новый экземпляр сервиса риска
func NewRiskService(
	settingsRepo SettingsRepositoryInterface,
	params ParamsProvider,
	quotes QuoteProvider,
	logger *utils.Logger,
) *RiskService {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	markets := defaultMarkets()
	symbolIndex := make(map[string]int, len(markets))
	for _, m := range markets {
		symbolIndex[m.Symbol] = m.PairIndex
	}

	return &RiskService{
		settingsRepo: settingsRepo,
		params:       params,
		quotes:       quotes,
		logger:       logger.WithComponent("service.risk"),
		markets:      markets,
		symbolIndex:  symbolIndex,
	}
}

// defaultMarkets возвращает реестр поддерживаемых рынков.
// Pair index соответствует ключам источника параметров ликвидности.
func defaultMarkets() []models.MarketInfo {
	return []models.MarketInfo{
		{Symbol: "BTCUSDT", Base: "BTC", Quote: "USDT", PairIndex: 0},
		{Symbol: "ETHUSDT", Base: "ETH", Quote: "USDT", PairIndex: 1},
		{Symbol: "SOLUSDT", Base: "SOL", Quote: "USDT", PairIndex: 2},
		{Symbol: "BNBUSDT", Base: "BNB", Quote: "USDT", PairIndex: 3},
		{Symbol: "XRPUSDT", Base: "XRP", Quote: "USDT", PairIndex: 4},
	}
}

// Markets возвращает реестр поддерживаемых рынков
func (s *RiskService) Markets() []models.MarketInfo {
	out := make([]models.MarketInfo, len(s.markets))
	copy(out, s.markets)
	return out
}

// PairIndex разрешает символ в pair index.
// Неизвестный символ - pair index 0: документированный фолбэк, не ошибка.
func (s *RiskService) PairIndex(symbol string) int {
	if idx, ok := s.symbolIndex[utils.NormalizeSymbol(symbol)]; ok {
		return idx
	}
	return 0
}

// CalculateRisk выполняет полный расчёт риска для произвольных входов.
//
// Текущая цена берётся из запроса, либо из последней котировки символа.
// Без текущей цены расчёт невозможен - ErrNoCurrentPrice.
// Путь со спредом используется если он включен (запросом или глобальной
// настройкой) И параметры ликвидности доступны; иначе путь без спреда.
func (s *RiskService) CalculateRisk(ctx context.Context, req *CalculateRiskRequest) (*models.LiquidationResult, error) {
	started := time.Now()

	currentPrice := req.CurrentPrice
	if currentPrice <= 0 {
		quote, ok := s.quotes.Get(utils.NormalizeSymbol(req.Symbol))
		if !ok {
			return nil, ErrNoCurrentPrice
		}
		currentPrice = quote.Price
	}

	position, err := models.NewPosition(req.Side, req.Collateral, req.Leverage, req.EntryPrice, currentPrice)
	if err != nil {
		return nil, err
	}

	settings := s.currentSettings()
	calc := engine.NewCalculator(settings.LiquidationThreshold)

	applySpread := settings.ApplySpread
	if req.ApplySpread != nil {
		applySpread = *req.ApplySpread
	}

	path := "plain"
	var result models.LiquidationResult
	if applySpread {
		if params, ok := s.params.Get(ctx, s.PairIndex(req.Symbol)); ok {
			withLiquidity := position.WithLiquidity(&params)
			result = calc.LiquidationWithSpread(withLiquidity)
			path = "spread"
		} else {
			// Параметров нет - тихо деградируем до пути без спреда
			result = calc.LiquidationDistance(*position)
		}
	} else {
		result = calc.LiquidationDistance(*position)
	}

	engine.RecordRiskCalculation(path, float64(time.Since(started).Microseconds())/1000.0)

	return &result, nil
}

// CalculateSpread выполняет только модель динамического спреда
func (s *RiskService) CalculateSpread(ctx context.Context, req *CalculateSpreadRequest) (*models.SpreadResult, error) {
	if req.Side != models.SideLong && req.Side != models.SideShort {
		return nil, ErrUnknownSide
	}
	if req.PositionSize <= 0 {
		return nil, ErrInvalidPositionSz
	}

	pairIndex := s.PairIndex(req.Symbol)
	if req.PairIndex != nil {
		pairIndex = *req.PairIndex
	}

	params, ok := s.params.Get(ctx, pairIndex)
	if !ok {
		return nil, ErrNoLiquidityParams
	}

	result := engine.DynamicSpread(req.Side, req.PositionSize, params)
	return &result, nil
}

// EvaluateWatched пересчитывает риск отслеживаемой позиции.
//
// Вызывается монитором на каждую позицию каждый tick, поэтому настройки
// читаются из короткоживущего снимка, а отсутствие параметров ликвидности
// деградирует до пути без спреда.
func (s *RiskService) EvaluateWatched(wp models.WatchedPosition, currentPrice float64) models.LiquidationResult {
	settings := s.currentSettings()
	calc := engine.NewCalculator(settings.LiquidationThreshold)

	position := models.Position{
		Side:         wp.Side,
		Collateral:   wp.Collateral,
		Leverage:     wp.Leverage,
		EntryPrice:   wp.EntryPrice,
		CurrentPrice: currentPrice,
	}

	if settings.ApplySpread {
		if params, ok := s.params.Get(context.Background(), s.PairIndex(wp.Symbol)); ok {
			return calc.LiquidationWithSpread(position.WithLiquidity(&params))
		}
	}

	return calc.LiquidationDistance(position)
}

// currentSettings возвращает настройки из снимка с TTL.
// При недоступной БД продолжает работать на последнем снимке
// либо на дефолтах.
func (s *RiskService) currentSettings() models.RiskSettings {
	s.settingsMu.RLock()
	fresh := !s.settingsAt.IsZero() && time.Since(s.settingsAt) < settingsTTL
	snapshot := s.settings
	s.settingsMu.RUnlock()

	if fresh {
		return snapshot
	}

	settings, err := s.settingsRepo.Get()
	if err != nil {
		s.logger.Warn("failed to load risk settings", utils.Err(err))
		if s.settingsAt.IsZero() {
			return models.DefaultRiskSettings()
		}
		return snapshot
	}

	s.settingsMu.Lock()
	s.settings = *settings
	s.settingsAt = time.Now()
	s.settingsMu.Unlock()

	return *settings
}

// InvalidateSettings сбрасывает снимок настроек.
// Вызывается сервисом настроек после обновления, чтобы изменение
// порога или apply_spread применилось без ожидания TTL.
func (s *RiskService) InvalidateSettings() {
	s.settingsMu.Lock()
	s.settingsAt = time.Time{}
	s.settingsMu.Unlock()
}
