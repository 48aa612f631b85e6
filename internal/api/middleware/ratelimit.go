package middleware

import (
	"net/http"

	"mtsync/pkg/utils"
)

// Limiter - минимальный интерфейс token bucket (см. pkg/ratelimit)
type Limiter interface {
	Allow() bool
}

// RateLimit дросселирует входящие запросы до обращения к пулу терминалов.
// Каждый sync занимает терминал на секунды, поэтому лишние запросы
// отбрасываются сразу с 429, без ожидания.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				utils.L().Warn("request rate limited",
					utils.String("path", r.URL.Path),
					utils.String("remote", r.RemoteAddr),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
