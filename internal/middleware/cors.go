package middleware

import (
	"net/http"
	"strings"
)

// CORS: заголовки для публичных маршрутов; preflight OPTIONS отвечает 204.
func CORS(methods ...string) func(http.Handler) http.Handler {
	allow := strings.Join(append(methods, http.MethodOptions), ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", allow)
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After, X-Request-Id")
			h.Set("Access-Control-Max-Age", "86400")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
