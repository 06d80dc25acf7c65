package engine

import (
	"sync"
	"time"

	"liqcalc/internal/models"
)

// ============ ОПТИМИЗАЦИЯ: Inline FNV-1a hash без аллокаций ============
// Константы FNV-1a для 32-битного хэша
const (
	fnvOffset32 = uint32(2166136261)
	fnvPrime32  = uint32(16777619)
)

// fnvHash вычисляет FNV-1a hash строки БЕЗ аллокаций.
// В отличие от fnv.New32a() не создаёт объект на куче - в горячем пути
// котировок это заметно.
func fnvHash(s string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

// QuoteBook - шардированное хранилище последних котировок по символам.
//
// Писатель один на символ (поток рыночных данных), читателей много
// (монитор риска, API, WebSocket-пуши). Шардирование по символу: разные
// символы не блокируют друг друга, внутри шарда RWMutex.
type QuoteBook struct {
	shards    []*quoteShard
	numShards uint32
}

type quoteShard struct {
	quotes map[string]models.Quote
	mu     sync.RWMutex
}

// NewQuoteBook создаёт шардированное хранилище котировок
func NewQuoteBook(numShards int) *QuoteBook {
	if numShards <= 0 {
		numShards = 16 // дефолт
	}

	qb := &QuoteBook{
		shards:    make([]*quoteShard, numShards),
		numShards: uint32(numShards),
	}
	for i := 0; i < numShards; i++ {
		qb.shards[i] = &quoteShard{quotes: make(map[string]models.Quote)}
	}
	return qb
}

// getShard возвращает шард для символа (детерминированно)
func (qb *QuoteBook) getShard(symbol string) *quoteShard {
	return qb.shards[fnvHash(symbol)%qb.numShards]
}

// Update сохраняет котировку. Котировки с неположительной ценой
// отбрасываются: источник иногда отдаёт нули при пересборке стакана.
func (qb *QuoteBook) Update(q models.Quote) {
	if q.Price <= 0 || q.Symbol == "" {
		return
	}

	shard := qb.getShard(q.Symbol)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Не даём устаревшему обновлению затереть более свежее:
	// при реконнекте поток может переигрывать историю
	if prev, ok := shard.quotes[q.Symbol]; ok && q.Timestamp.Before(prev.Timestamp) {
		return
	}
	shard.quotes[q.Symbol] = q
}

// Get возвращает последнюю котировку символа.
// Сложность: O(1), lock только на шарде символа.
func (qb *QuoteBook) Get(symbol string) (models.Quote, bool) {
	shard := qb.getShard(symbol)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	q, ok := shard.quotes[symbol]
	return q, ok
}

// GetFresh возвращает котировку, только если она моложе maxAge.
// Протухшая котировка для расчёта риска хуже, чем её отсутствие.
func (qb *QuoteBook) GetFresh(symbol string, maxAge time.Duration, now time.Time) (models.Quote, bool) {
	q, ok := qb.Get(symbol)
	if !ok {
		return models.Quote{}, false
	}
	if now.Sub(q.Timestamp) > maxAge {
		return models.Quote{}, false
	}
	return q, true
}

// Symbols возвращает все символы с известными котировками
func (qb *QuoteBook) Symbols() []string {
	out := make([]string, 0, 32)
	for _, shard := range qb.shards {
		shard.mu.RLock()
		for sym := range shard.quotes {
			out = append(out, sym)
		}
		shard.mu.RUnlock()
	}
	return out
}
