package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// limiter.go - ограничение частоты запросов к источникам рыночных данных
//
// Алгоритм: token bucket.
// Бакет вмещает burst токенов и пополняется с постоянной скоростью
// rate токенов/сек. Каждый запрос забирает один токен; пустой бакет
// означает ожидание (Wait) или отказ (Allow).
//
// Зачем:
// Публичные API цен и глубины стакана режут ключи за превышение
// лимитов. Дешевле притормозить свои запросы, чем получить бан
// и остаться без данных для мониторинга позиций.

// RateLimiter ограничивает частоту операций по алгоритму token bucket
type RateLimiter struct {
	mu sync.Mutex

	rate  float64 // токенов в секунду
	burst int     // вместимость бакета

	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter создаёт лимитер
//
// Параметры:
//   - rate: сколько запросов в секунду разрешено в среднем
//   - burst: сколько запросов можно сделать подряд без ожидания
//
// Пример для API с лимитом 10 req/s:
//
//	limiter := ratelimit.NewRateLimiter(10, 20)
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst), // стартуем с полным бакетом
		lastRefill: time.Now(),
	}
}

// refill пополняет бакет токенами. Вызывать под mu.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	rl.tokens += elapsed * rl.rate
	if rl.tokens > float64(rl.burst) {
		rl.tokens = float64(rl.burst)
	}
	rl.lastRefill = now
}

// Allow сообщает можно ли выполнить запрос прямо сейчас.
// Не блокирует: при пустом бакете возвращает false.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN проверяет доступность n токенов
func (rl *RateLimiter) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// Wait блокирует до появления токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN блокирует до появления n токенов или отмены контекста
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > rl.burst {
		return fmt.Errorf("ratelimit: requested %d tokens exceeds burst %d", n, rl.burst)
	}

	for {
		rl.mu.Lock()
		now := time.Now()
		rl.refill(now)

		if rl.tokens >= float64(n) {
			rl.tokens -= float64(n)
			rl.mu.Unlock()
			return nil
		}

		// Сколько ждать до накопления недостающих токенов
		deficit := float64(n) - rl.tokens
		wait := time.Duration(deficit / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			// пробуем снова
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Tokens возвращает текущее количество токенов (для метрик/отладки)
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}

// Rate возвращает скорость пополнения
func (rl *RateLimiter) Rate() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rate
}

// Burst возвращает вместимость бакета
func (rl *RateLimiter) Burst() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.burst
}

// SetRate меняет скорость пополнения на лету.
// Используется когда источник данных отвечает 429 и просит сбавить темп.
func (rl *RateLimiter) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	rl.rate = rate
}

// ============================================================
// MultiLimiter
// ============================================================

// MultiLimiter хранит отдельный лимитер на каждый endpoint.
// REST-котировки и параметры ликвидности имеют разные лимиты,
// смешивать их в одном бакете нельзя.
type MultiLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*RateLimiter

	defaultRate  float64
	defaultBurst int
}

// NewMultiLimiter создаёт набор лимитеров с дефолтными параметрами
// для незарегистрированных ключей
func NewMultiLimiter(defaultRate float64, defaultBurst int) *MultiLimiter {
	return &MultiLimiter{
		limiters:     make(map[string]*RateLimiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

// Register задаёт лимит для конкретного ключа (endpoint'а)
func (ml *MultiLimiter) Register(key string, rate float64, burst int) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.limiters[key] = NewRateLimiter(rate, burst)
}

// get возвращает лимитер для ключа, создавая дефолтный при отсутствии
func (ml *MultiLimiter) get(key string) *RateLimiter {
	ml.mu.RLock()
	rl, ok := ml.limiters[key]
	ml.mu.RUnlock()
	if ok {
		return rl
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if rl, ok = ml.limiters[key]; ok {
		return rl
	}
	rl = NewRateLimiter(ml.defaultRate, ml.defaultBurst)
	ml.limiters[key] = rl
	return rl
}

// Wait блокирует до появления токена у лимитера ключа
func (ml *MultiLimiter) Wait(ctx context.Context, key string) error {
	return ml.get(key).Wait(ctx)
}

// Allow проверяет доступность токена у лимитера ключа
func (ml *MultiLimiter) Allow(key string) bool {
	return ml.get(key).Allow()
}
