package handlers

import (
	"net/http"
	"time"

	"liqcalc/internal/service"
)

// MarketHandler отвечает за реестр поддерживаемых рынков.
//
// Endpoints:
// - GET /api/v1/markets - список рынков с последними котировками
type MarketHandler struct {
	riskService service.RiskServiceInterface
	quotes      service.QuoteProvider
}

// NewMarketHandler создает новый MarketHandler
func NewMarketHandler(riskService service.RiskServiceInterface, quotes service.QuoteProvider) *MarketHandler {
	return &MarketHandler{
		riskService: riskService,
		quotes:      quotes,
	}
}

// MarketDTO представляет рынок с последней котировкой
type MarketDTO struct {
	Symbol    string `json:"symbol"`
	Base      string `json:"base"`
	Quote     string `json:"quote"`
	PairIndex int    `json:"pair_index"`

	// Последняя котировка; отсутствует если котировок ещё не было
	LastPrice *float64   `json:"last_price,omitempty"`
	PriceAt   *time.Time `json:"price_at,omitempty"`
}

// GetMarkets возвращает реестр рынков с последними котировками
//
// GET /api/v1/markets
func (h *MarketHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.riskService.Markets()

	dtos := make([]MarketDTO, 0, len(markets))
	for _, m := range markets {
		dto := MarketDTO{
			Symbol:    m.Symbol,
			Base:      m.Base,
			Quote:     m.Quote,
			PairIndex: m.PairIndex,
		}
		if quote, ok := h.quotes.Get(m.Symbol); ok {
			price := quote.Price
			at := quote.Timestamp
			dto.LastPrice = &price
			dto.PriceAt = &at
		}
		dtos = append(dtos, dto)
	}

	respondWithJSON(w, http.StatusOK, dtos)
}
