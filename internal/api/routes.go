package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liqcalc/internal/api/handlers"
	"liqcalc/internal/api/middleware"
	"liqcalc/internal/service"
	"liqcalc/pkg/utils"
)

// Dependencies содержит все зависимости для API
type Dependencies struct {
	RiskService         service.RiskServiceInterface
	PositionService     service.PositionServiceInterface
	SettingsService     service.SettingsServiceInterface
	NotificationService service.NotificationServiceInterface
	Quotes              service.QuoteProvider

	// HTTP handler WebSocket стрима (nil отключает /ws/stream)
	StreamHandler http.Handler

	// Именованные проверки для /healthz
	HealthChecks map[string]func() error

	// bcrypt-хеш API токена; пустой отключает аутентификацию
	APITokenHash string

	// Белый список CORS origins; пустой разрешает все
	AllowedOrigins []string

	// Basic Auth для /debug/pprof; без credentials доступ запрещён
	DebugUsername string
	DebugPassword string

	Logger *utils.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/ (Recovery → Logging → CORS → TokenAuth)
//
//	├── /risk/
//	│   ├── POST /calculate - расчёт риска по произвольным входам
//	│   └── POST /spread - только модель динамического спреда
//	├── /positions/
//	│   ├── GET / - список позиций
//	│   ├── POST / - регистрация позиции
//	│   ├── GET /{id} - одна позиция
//	│   ├── PATCH /{id} - обновление входов
//	│   ├── DELETE /{id} - снятие с мониторинга
//	│   ├── POST /{id}/pause - приостановка
//	│   └── POST /{id}/resume - возобновление
//	├── /markets/
//	│   └── GET / - реестр рынков с котировками
//	├── /notifications/
//	│   ├── GET / - журнал уведомлений
//	│   └── DELETE / - очистка журнала
//	└── /settings/
//	    ├── GET / - текущие настройки
//	    ├── PATCH / - частичное обновление
//	    └── POST /reset - сброс к дефолтам
//
// /ws/stream - WebSocket real-time обновлений (без TokenAuth: браузер
// не может выставить заголовки, доступ ограничивается origin'ом)
// /metrics  - Prometheus метрики
// /healthz  - liveness/readiness
// /debug/pprof/ - профилирование, закрыто Basic Auth
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.TokenAuth(deps.APITokenHash, deps.Logger))

	if deps.RiskService != nil {
		riskHandler := handlers.NewRiskHandler(deps.RiskService)
		api.HandleFunc("/risk/calculate", riskHandler.CalculateRisk).Methods("POST")
		api.HandleFunc("/risk/spread", riskHandler.CalculateSpread).Methods("POST")

		if deps.Quotes != nil {
			marketHandler := handlers.NewMarketHandler(deps.RiskService, deps.Quotes)
			api.HandleFunc("/markets", marketHandler.GetMarkets).Methods("GET")
		}
	}

	if deps.PositionService != nil {
		positionHandler := handlers.NewPositionHandler(deps.PositionService)
		api.HandleFunc("/positions", positionHandler.GetPositions).Methods("GET")
		api.HandleFunc("/positions", positionHandler.CreatePosition).Methods("POST")
		api.HandleFunc("/positions/{id}", positionHandler.GetPosition).Methods("GET")
		api.HandleFunc("/positions/{id}", positionHandler.UpdatePosition).Methods("PATCH")
		api.HandleFunc("/positions/{id}", positionHandler.DeletePosition).Methods("DELETE")
		api.HandleFunc("/positions/{id}/pause", positionHandler.PausePosition).Methods("POST")
		api.HandleFunc("/positions/{id}/resume", positionHandler.ResumePosition).Methods("POST")
	}

	if deps.NotificationService != nil {
		notificationHandler := handlers.NewNotificationHandler(deps.NotificationService)
		api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
		api.HandleFunc("/notifications", notificationHandler.ClearNotifications).Methods("DELETE")
	}

	if deps.SettingsService != nil {
		settingsHandler := handlers.NewSettingsHandler(deps.SettingsService)
		api.HandleFunc("/settings", settingsHandler.GetSettings).Methods("GET")
		api.HandleFunc("/settings", settingsHandler.UpdateSettings).Methods("PATCH")
		api.HandleFunc("/settings/reset", settingsHandler.ResetSettings).Methods("POST")
	}

	if deps.StreamHandler != nil {
		router.Handle("/ws/stream", deps.StreamHandler)
	}

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth(deps.DebugUsername, deps.DebugPassword))
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").HandlerFunc(pprof.Index)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	router.HandleFunc("/healthz", healthHandler.Health).Methods("GET")

	return router
}
