package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"liqcalc/internal/service"
)

// PositionHandler отвечает за управление отслеживаемыми позициями.
//
// Endpoints:
// - POST   /api/v1/positions            - регистрация позиции
// - GET    /api/v1/positions            - список всех позиций
// - GET    /api/v1/positions/{id}       - одна позиция
// - PATCH  /api/v1/positions/{id}       - частичное обновление входов
// - DELETE /api/v1/positions/{id}       - снятие с мониторинга
// - POST   /api/v1/positions/{id}/pause - приостановка мониторинга
// - POST   /api/v1/positions/{id}/resume - возобновление мониторинга
type PositionHandler struct {
	positionService service.PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler
func NewPositionHandler(positionService service.PositionServiceInterface) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

// CreatePosition регистрирует позицию для мониторинга
//
// POST /api/v1/positions
//
// HTTP коды:
// - 201 Created: позиция зарегистрирована
// - 400 Bad Request: невалидные входы
// - 409 Conflict: достигнут лимит позиций
func (h *PositionHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	position, err := h.positionService.CreatePosition(&req)
	if err != nil {
		if errors.Is(err, service.ErrMaxPositionsReached) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithValidationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, position)
}

// GetPositions возвращает список позиций
//
// GET /api/v1/positions
// GET /api/v1/positions?status=active - только активно мониторимые
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	var (
		positions interface{}
		err       error
	)
	if r.URL.Query().Get("status") == "active" {
		positions, err = h.positionService.GetActivePositions()
	} else {
		positions, err = h.positionService.GetPositions()
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, positions)
}

// GetPosition возвращает позицию по ID
//
// GET /api/v1/positions/{id}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	position, err := h.positionService.GetPosition(id)
	if err != nil {
		h.respondPositionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// UpdatePosition обновляет входы позиции
//
// PATCH /api/v1/positions/{id}
//
// Обновляются только переданные поля (collateral, leverage, entry_price)
func (h *PositionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	var req service.UpdatePositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	position, err := h.positionService.UpdatePosition(id, &req)
	if err != nil {
		if errors.Is(err, service.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithValidationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// DeletePosition снимает позицию с мониторинга
//
// DELETE /api/v1/positions/{id}
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	if err := h.positionService.DeletePosition(id); err != nil {
		h.respondPositionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "position removed"})
}

// PausePosition приостанавливает мониторинг позиции
//
// POST /api/v1/positions/{id}/pause
func (h *PositionHandler) PausePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	if err := h.positionService.PausePosition(id); err != nil {
		h.respondPositionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "position paused"})
}

// ResumePosition возобновляет мониторинг позиции
//
// POST /api/v1/positions/{id}/resume
func (h *PositionHandler) ResumePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.positionID(w, r)
	if !ok {
		return
	}

	if err := h.positionService.ResumePosition(id); err != nil {
		h.respondPositionError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "position resumed"})
}

// positionID извлекает и валидирует {id} из пути
func (h *PositionHandler) positionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid position id: "+idStr)
		return 0, false
	}
	return id, true
}

// respondPositionError маппит ошибки сервиса позиций в HTTP статусы
func (h *PositionHandler) respondPositionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPositionNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPositionAlreadyPaused),
		errors.Is(err, service.ErrPositionAlreadyActive):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
