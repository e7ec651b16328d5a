package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"wgnst/internal/logs"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// LoggerMW: одна строка на запрос. Токен скачивания в URI обрезается.
func LoggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(sw, r)
		logs.Logger.WithFields(logrus.Fields{
			"reqid":  GetRequestID(r),
			"method": r.Method,
			"uri":    redactURI(r.URL.Path),
			"status": sw.status,
			"bytes":  sw.bytes,
			"dur":    time.Since(start).String(),
			"ip":     ClientIP(r),
			"ua":     r.UserAgent(),
		}).Info("http request")
	})
}

func redactURI(path string) string {
	const marker = "/download/"
	i := strings.Index(path, marker)
	if i < 0 {
		return path
	}
	return path[:i+len(marker)] + logs.Short(path[i+len(marker):])
}
