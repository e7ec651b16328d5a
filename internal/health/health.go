// Package health: liveness и readiness.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"wgnst/internal/models"
)

// Deps: зависимости, проверяемые /readyz. Nil-поле означает режим без неё
// (in-memory хранилище, лимитер в памяти).
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
}

type status struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Limiter string `json:"limiter"`
}

// RegisterRoutes: /healthz всегда, /readyz с проверкой зависимостей.
func RegisterRoutes(r *mux.Router, deps Deps) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", deps.readiness).Methods(http.MethodGet)
}

func (d Deps) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	st := status{Status: "ok", Storage: "memory", Limiter: "memory"}
	if d.DB != nil {
		st.Storage = "database"
		sqlDB, err := d.DB.DB()
		if err != nil {
			models.WriteProblem(w, http.StatusServiceUnavailable, "Not Ready", "db handle error", nil)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			models.WriteProblem(w, http.StatusServiceUnavailable, "Not Ready", "db unreachable", nil)
			return
		}
	}
	if d.Redis != nil {
		st.Limiter = "redis"
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			models.WriteProblem(w, http.StatusServiceUnavailable, "Not Ready", "redis unreachable", nil)
			return
		}
	}
	models.WriteJSON(w, http.StatusOK, st)
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
