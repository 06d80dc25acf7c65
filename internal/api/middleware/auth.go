package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"liqcalc/pkg/crypto"
	"liqcalc/pkg/utils"
)

// TokenAuth проверяет API токен запроса против bcrypt-хеша.
//
// Токен извлекается из Authorization: Bearer <token> либо из заголовка
// X-API-Token. Пустой tokenHash отключает аутентификацию целиком -
// режим локального развертывания без внешнего доступа.
func TokenAuth(tokenHash string, logger *utils.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	log := logger.WithComponent("api.auth")

	return func(next http.Handler) http.Handler {
		if tokenHash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Формат проверяется до bcrypt: мусорный токен не должен
			// стоить нам сравнения хеша
			if !utils.IsValidAPIToken(token) || !crypto.CheckTokenMatch(token, tokenHash) {
				log.Warn("rejected request with invalid API token",
					utils.String("remote", r.RemoteAddr),
					utils.String("path", r.URL.Path),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken достает токен из Authorization: Bearer или X-API-Token
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Token"))
}

// DebugAuth защищает debug/pprof endpoints через HTTP Basic Auth.
// Без настроенных credentials доступ запрещён
func DebugAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username == "" || password == "" {
				http.Error(w, "Debug endpoints disabled", http.StatusForbidden)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Constant-time сравнение против timing attacks
			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
