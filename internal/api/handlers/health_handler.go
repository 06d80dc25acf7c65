package handlers

import (
	"net/http"
	"time"
)

// HealthHandler отвечает за liveness/readiness проверки.
//
// Endpoints:
// - GET /healthz - состояние сервиса и его зависимостей
//
// Проверки инжектируются по имени; любая упавшая проверка переводит
// статус в degraded (503), но ответ всегда содержит детали по каждой
type HealthHandler struct {
	startedAt time.Time
	checks    map[string]func() error
}

// NewHealthHandler создает новый HealthHandler.
// checks - именованные проверки зависимостей (database, market data)
func NewHealthHandler(checks map[string]func() error) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		checks:    checks,
	}
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status        string            `json:"status"` // ok, degraded
	UptimeSeconds float64           `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"` // имя -> ok | текст ошибки
}

// Health возвращает состояние сервиса
//
// GET /healthz
//
// HTTP коды:
// - 200 OK: все зависимости доступны
// - 503 Service Unavailable: хотя бы одна проверка упала
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	if len(h.checks) > 0 {
		response.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(); err != nil {
				response.Status = "degraded"
				response.Checks[name] = err.Error()
			} else {
				response.Checks[name] = "ok"
			}
		}
	}

	code := http.StatusOK
	if response.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondWithJSON(w, code, response)
}
