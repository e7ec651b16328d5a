package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"wgnst/internal/audit"
	"wgnst/internal/middleware"
	"wgnst/internal/models"
)

type captureWriter struct {
	http.ResponseWriter
	status int
}

func (w *captureWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// accessLog пишет запись о каждом вызове API после ответа.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &captureWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		action := r.Method + " " + r.URL.Path
		resType := ""
		if rt := mux.CurrentRoute(r); rt != nil && rt.GetName() != "" {
			action = rt.GetName()
			resType = resourceType(action)
		}
		h.rec.Access(models.AccessLog{
			Subject:      audit.SubjectFrom(r.Context()),
			Action:       action,
			ResourceType: resType,
			ResourceID:   mux.Vars(r)["id"],
			IP:           middleware.ClientIP(r),
			UserAgent:    r.UserAgent(),
			Status:       cw.status,
		})
	})
}

// resourceType: "create_peers" → "peer", "list_audit_logs" → "audit_log".
func resourceType(action string) string {
	_, rest, ok := strings.Cut(action, "_")
	if !ok {
		return ""
	}
	switch {
	case strings.HasPrefix(rest, "peer"), rest == "token", rest == "download":
		return "peer"
	case strings.HasPrefix(rest, "client"), rest == "bundle":
		return "client"
	}
	return strings.TrimSuffix(rest, "s")
}
