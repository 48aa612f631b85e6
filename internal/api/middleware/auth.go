package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"mtsync/pkg/crypto"
	"mtsync/pkg/utils"
)

// APIKeyAuth проверяет клиентский ключ против bcrypt-хеша из конфигурации.
//
// Ключ принимается из заголовка X-API-Key либо Authorization: Bearer <key>.
// Пустой хеш полностью отключает проверку: локальное развертывание с одним
// оператором работает без ключей.
//
// Сравнение идет через bcrypt (см. pkg/crypto), сам ключ нигде не хранится
// и не логируется.
func APIKeyAuth(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r)
			if key == "" || !crypto.CheckAPIKeyMatch(key, keyHash) {
				utils.L().Warn("rejected request with invalid api key",
					utils.String("path", r.URL.Path),
					utils.String("remote", r.RemoteAddr),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey достает ключ из X-API-Key или Authorization: Bearer
func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// debugUsername и debugPassword защищают debug/pprof endpoints.
// Загружаются из переменных окружения DEBUG_USERNAME и DEBUG_PASSWORD.
var (
	debugUsername = os.Getenv("DEBUG_USERNAME")
	debugPassword = os.Getenv("DEBUG_PASSWORD")
)

// DebugAuth закрывает debug/pprof endpoints базовой HTTP аутентификацией.
//
// Если credentials не настроены, в development доступ открыт, иначе 403.
// Сравнение constant-time для защиты от timing attacks.
func DebugAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debugUsername == "" || debugPassword == "" {
			if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(debugUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(debugPassword)) == 1

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
