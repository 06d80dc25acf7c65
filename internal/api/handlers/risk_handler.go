package handlers

import (
	"errors"
	"net/http"

	"liqcalc/internal/models"
	"liqcalc/internal/service"
)

// RiskHandler отвечает за ad-hoc расчёты риска.
//
// Endpoints:
// - POST /api/v1/risk/calculate - полный расчёт риска по произвольным входам
// - POST /api/v1/risk/spread - только модель динамического спреда
//
// Расчёты stateless: входы приходят в теле запроса, позиция в БД
// не нужна. Используется frontend'ом для live-пересчёта при движении
// слайдеров плеча и залога
type RiskHandler struct {
	riskService service.RiskServiceInterface
}

// NewRiskHandler создает новый RiskHandler
func NewRiskHandler(riskService service.RiskServiceInterface) *RiskHandler {
	return &RiskHandler{riskService: riskService}
}

// CalculateRisk выполняет расчёт цены ликвидации, дистанции и margin ratio
//
// POST /api/v1/risk/calculate
//
// Body: service.CalculateRiskRequest
// current_price = 0 означает "взять последнюю котировку символа".
//
// HTTP коды:
// - 200 OK: результат расчёта
// - 400 Bad Request: невалидные входы
// - 503 Service Unavailable: нет котировки символа
func (h *RiskHandler) CalculateRisk(w http.ResponseWriter, r *http.Request) {
	var req service.CalculateRiskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.riskService.CalculateRisk(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoCurrentPrice):
			respondWithError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, models.ErrInvalidSide),
			errors.Is(err, models.ErrInvalidCollateral),
			errors.Is(err, models.ErrInvalidLeverage),
			errors.Is(err, models.ErrInvalidEntryPrice),
			errors.Is(err, models.ErrInvalidPrice):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// CalculateSpread выполняет только модель динамического спреда
//
// POST /api/v1/risk/spread
//
// HTTP коды:
// - 200 OK: компоненты и агрегаты спреда
// - 400 Bad Request: невалидные входы
// - 503 Service Unavailable: нет параметров ликвидности рынка
func (h *RiskHandler) CalculateSpread(w http.ResponseWriter, r *http.Request) {
	var req service.CalculateSpreadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.riskService.CalculateSpread(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSide), errors.Is(err, service.ErrInvalidPositionSz):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoLiquidityParams):
			respondWithError(w, http.StatusServiceUnavailable, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
