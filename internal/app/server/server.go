package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ofsadmin/internal/domain/audit"
	"ofsadmin/internal/domain/auth"
	"ofsadmin/internal/domain/provision"
	"ofsadmin/internal/domain/triage"
	"ofsadmin/internal/domain/usertype"
	"ofsadmin/internal/ofs"
	"ofsadmin/internal/platform/config"
	"ofsadmin/internal/platform/db"
	"ofsadmin/internal/platform/jobs"
	"ofsadmin/internal/platform/metrics"
	"ofsadmin/internal/transport/http/api"
	audithandler "ofsadmin/internal/transport/http/handlers/audit"
	authhandler "ofsadmin/internal/transport/http/handlers/auth"
	cleanuphandler "ofsadmin/internal/transport/http/handlers/cleanup"
	provisionhandler "ofsadmin/internal/transport/http/handlers/provision"
	triagehandler "ofsadmin/internal/transport/http/handlers/triage"
	usertypehandler "ofsadmin/internal/transport/http/handlers/usertype"
	"ofsadmin/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	client := ofs.NewClient(cfg.OFS())
	collector := metrics.New()

	jobService := jobs.New(pool, cfg, client, collector)
	jobService.Start(ctx)

	router := NewRouter(cfg, pool, client, collector)

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// NewRouter wires every route; split out from Run so tests can stand up
// the full HTTP surface without a listener.
func NewRouter(cfg config.Config, pool *db.Pool, client *ofs.Client, collector *metrics.Collector) http.Handler {
	authStore := auth.NewStore(pool)
	auditService := audit.New(pool)
	triageService := triage.NewService(client, triage.NewStore(pool))
	provisionService := provision.NewService(client)
	usertypeStore := usertype.NewStore(pool)
	usertypeService := usertype.NewService(client)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/me", authHandler.HandleMe)

		cleanupHandler := cleanuphandler.NewHandler(client, auditService, collector, authStore, cfg.ScanCutoffDays)
		cleanupHandler.RegisterRoutes(r)

		usertypeHandler := usertypehandler.NewHandler(usertypeStore, usertypeService, auditService, authStore)
		usertypeHandler.RegisterRoutes(r)

		provisionHandler := provisionhandler.NewHandler(provisionService, auditService, authStore)
		provisionHandler.RegisterRoutes(r)

		triageHandler := triagehandler.NewHandler(triageService, authStore)
		triageHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditService, authStore)
		auditHandler.RegisterRoutes(r)
	})

	return router
}
