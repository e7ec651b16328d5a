package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"wgnst/internal/logs"
	"wgnst/internal/models"
)

// Recoverer перехватывает панику в обработчике, пишет лог со стеком
// и возвращает 500 в формате application/problem+json.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				reqid := GetRequestID(r)
				logs.Logger.WithFields(logrus.Fields{
					"reqid":  reqid,
					"method": r.Method,
					"uri":    redactURI(r.URL.Path),
					"stack":  string(debug.Stack()),
				}).Errorf("panic: %v", rec)
				models.WriteInternal(w, reqid)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
