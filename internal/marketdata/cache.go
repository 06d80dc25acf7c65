package marketdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"liqcalc/internal/engine"
	"liqcalc/internal/models"
	"liqcalc/pkg/utils"
)

// cache.go - кэш параметров ликвидности
//
// Параметры меняются редко (раз в десятки секунд у источника), а нужны
// на каждый расчёт со спредом. Кэш держит последний снимок с окном
// свежести; при недоступном источнике продолжает отдавать последний
// валидный снимок, считая такие выдачи в метрике fallback.
//
// Часы инжектируются: тесты управляют временем без time.Sleep.

// ErrNoParams - параметров нет ни в кэше, ни у источника
var ErrNoParams = errors.New("no liquidity params available")

// paramsFetcher - то, что кэш требует от источника параметров
type paramsFetcher interface {
	FetchParams(ctx context.Context) (map[int]models.MarketLiquidityParams, error)
}

// ParamsCacheConfig настройки кэша параметров
type ParamsCacheConfig struct {
	// TTL - окно свежести снимка. По умолчанию: 30s
	TTL time.Duration

	// Now - источник времени. По умолчанию: time.Now
	Now func() time.Time
}

// ParamsCache - кэш снимков параметров ликвидности по pair index
type ParamsCache struct {
	source paramsFetcher
	ttl    time.Duration
	now    func() time.Time
	logger *utils.Logger

	mu        sync.RWMutex
	snapshot  map[int]models.MarketLiquidityParams
	fetchedAt time.Time
}

// NewParamsCache создаёт кэш поверх источника параметров
func NewParamsCache(source paramsFetcher, cfg ParamsCacheConfig, logger *utils.Logger) *ParamsCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}

	return &ParamsCache{
		source: source,
		ttl:    cfg.TTL,
		now:    cfg.Now,
		logger: logger.WithComponent("marketdata.params_cache"),
	}
}

// Get возвращает параметры для pair index.
//
// Снимок свежий - отдаём из кэша. Протухший - пробуем обновить; если
// источник недоступен, отдаём последний валидный снимок (fallback).
// false только если параметров для pair index нет вообще.
func (pc *ParamsCache) Get(ctx context.Context, pairIndex int) (models.MarketLiquidityParams, bool) {
	snapshot := pc.freshSnapshot(ctx)
	if snapshot == nil {
		return models.MarketLiquidityParams{}, false
	}

	params, ok := snapshot[pairIndex]
	return params, ok
}

// Snapshot возвращает копию всего снимка параметров.
// nil если снимка нет и источник недоступен.
func (pc *ParamsCache) Snapshot(ctx context.Context) map[int]models.MarketLiquidityParams {
	snapshot := pc.freshSnapshot(ctx)
	if snapshot == nil {
		return nil
	}

	out := make(map[int]models.MarketLiquidityParams, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	return out
}

// Refresh принудительно обновляет снимок, игнорируя окно свежести
func (pc *ParamsCache) Refresh(ctx context.Context) error {
	snapshot, err := pc.source.FetchParams(ctx)
	if err != nil {
		engine.RecordMarketDataError("params")
		return err
	}
	if len(snapshot) == 0 {
		engine.RecordMarketDataError("params")
		return ErrNoParams
	}

	pc.mu.Lock()
	pc.snapshot = snapshot
	pc.fetchedAt = pc.now()
	pc.mu.Unlock()

	return nil
}

// FetchedAt возвращает время последнего успешного обновления
func (pc *ParamsCache) FetchedAt() time.Time {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.fetchedAt
}

// Run периодически обновляет кэш до отмены контекста.
// onRefresh (опционально) вызывается после каждого успешного обновления,
// например для рассылки paramsUpdate по WebSocket.
func (pc *ParamsCache) Run(ctx context.Context, interval time.Duration, onRefresh func()) {
	if interval <= 0 {
		interval = pc.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pc.Refresh(ctx); err != nil {
				pc.logger.Warn("params refresh failed", utils.Err(err))
				continue
			}
			if onRefresh != nil {
				onRefresh()
			}
		}
	}
}

// freshSnapshot возвращает актуальный снимок, обновляя при протухании.
// Под fallback попадает только протухший снимок при недоступном источнике.
func (pc *ParamsCache) freshSnapshot(ctx context.Context) map[int]models.MarketLiquidityParams {
	pc.mu.RLock()
	snapshot := pc.snapshot
	fresh := snapshot != nil && pc.now().Sub(pc.fetchedAt) < pc.ttl
	pc.mu.RUnlock()

	if fresh {
		return snapshot
	}

	if err := pc.Refresh(ctx); err != nil {
		if snapshot != nil {
			engine.ParamsCacheFallbacks.Inc()
			pc.logger.Warn("serving last-good liquidity params",
				utils.Err(err),
				utils.String("fetched_at", pc.FetchedAt().Format(time.RFC3339)),
			)
			return snapshot
		}
		return nil
	}

	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.snapshot
}
