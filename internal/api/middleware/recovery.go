package middleware

import (
	"net/http"
	"runtime/debug"

	"liqcalc/pkg/utils"
)

// Recovery перехватывает panic в handlers, логирует stack trace и
// возвращает клиенту 500 вместо падения всего сервера
func Recovery(logger *utils.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	log := logger.WithComponent("api.recovery")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic in handler",
						utils.Any("panic", err),
						utils.String("method", r.Method),
						utils.String("path", r.URL.Path),
						utils.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
