package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wgnst/config"
	"wgnst/internal/api"
	"wgnst/internal/audit"
	"wgnst/internal/auth"
	"wgnst/internal/db"
	"wgnst/internal/download"
	"wgnst/internal/health"
	"wgnst/internal/logs"
	"wgnst/internal/middleware"
	"wgnst/internal/provision"
	"wgnst/internal/qr"
	"wgnst/internal/ratelimit"
	"wgnst/internal/render/router"
	"wgnst/internal/repo"
	"wgnst/internal/secrets"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	store      repo.Store
	redis      *redis.Client
	rec        *audit.Recorder
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// OpenStore: при заданном драйвере gorm с миграцией, иначе in-memory.
func OpenStore(cfg *config.Config) (repo.Store, *gorm.DB, error) {
	if cfg.Database.Driver == "" {
		logs.Logger.Warn("database driver not set: using in-memory store, data is lost on restart")
		return repo.NewMemStore(), nil, nil
	}
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Migrate(d); err != nil {
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}
	return repo.NewGormStore(d), d, nil
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	/* 2) Хранилище */
	store, d, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	a.store, a.db = store, d
	a.rec = audit.NewRecorder(store, cfg.Audit.Timeout)

	/* 3) Лимитер скачиваний: Redis, если задан, иначе память */
	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if n := cfg.Download.RatePerMinute; n > 0 {
		if a.redis != nil {
			limiter = ratelimit.NewRedisLimiter(a.redis, n, time.Minute)
		} else {
			limiter = ratelimit.NewMemoryLimiter(n)
		}
	}

	/* 4) Сервисы */
	qrp, err := qr.New(cfg.QR.Mode, cfg.QR.RemoteURL, cfg.QR.Size, cfg.QR.Timeout)
	if err != nil {
		return err
	}
	dialect, err := router.ParseDialect(cfg.Provisioning.RouterDialect)
	if err != nil {
		return err
	}
	svc := provision.New(store, store, qrp, a.rec, provision.Options{
		PublicBaseURL: cfg.Download.PublicBaseURL,
		DefaultLimit:  cfg.Download.DefaultLimit,
		DefaultTTL:    cfg.Download.DefaultTTL,
		AllowedIPs:    cfg.Provisioning.AllowedIPs,
		DefaultPort:   cfg.Provisioning.DefaultPort,
		Dialect:       dialect,
	})
	authn := auth.New(cfg.Auth.JWTSecret, secrets.New(store), cfg.Auth.Disabled)
	if cfg.Auth.Disabled {
		logs.Logger.Warn("auth disabled: management API is open")
	}

	/* 5) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	if cfg.Server.TrustProxy {
		a.Router.Use(middleware.RealIP)
	}
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 6) Health */
	health.RegisterRoutes(a.Router, health.Deps{DB: a.db, Redis: a.redis})

	/* 7) Публичные скачивания, до /api, иначе /api/download попадёт под auth */
	download.NewGateway(store, a.rec, limiter).RegisterRoutes(a.Router)

	/* 8) Management API */
	api.New(svc, store, a.rec).RegisterRoutes(a.Router, authn.Middleware)

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.WithFields(logrus.Fields{"methods": methods, "path": path}).Debug("route")
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-a.ctx.Done():
	case runErr = <-errc:
		logs.Logger.Errorf("http server error: %v", runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	// дописать журналы, начатые последними запросами
	a.rec.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return runErr
}
