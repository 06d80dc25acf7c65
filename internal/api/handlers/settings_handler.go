package handlers

import (
	"errors"
	"net/http"

	"liqcalc/internal/service"
	"liqcalc/pkg/utils"
)

// SettingsHandler отвечает за глобальные настройки движка риска.
//
// Endpoints:
// - GET   /api/v1/settings       - текущие настройки
// - PATCH /api/v1/settings       - частичное обновление
// - POST  /api/v1/settings/reset - сброс к значениям по умолчанию
//
// Настройки: порог ликвидации, учёт динамического спреда,
// фильтры типов уведомлений
type SettingsHandler struct {
	settingsService service.SettingsServiceInterface
}

// NewSettingsHandler создает новый SettingsHandler
func NewSettingsHandler(settingsService service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings возвращает текущие настройки
//
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings применяет частичное обновление настроек
//
// PATCH /api/v1/settings
//
// HTTP коды:
// - 200 OK: обновлённые настройки
// - 400 Bad Request: порог вне (0, 1)
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.settingsService.UpdateSettings(&req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidThreshold) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// ResetSettings сбрасывает настройки к значениям по умолчанию
//
// POST /api/v1/settings/reset
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.ResetToDefaults(); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}
