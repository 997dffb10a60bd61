package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/api"
	"github.com/guardrail-ml/gce/pkg/gce/config"
)

// ServerEnv holds process-level settings that sit outside the service
// configuration proper.
type ServerEnv struct {
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL" env-default:"5m"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`
}

func main() {
	_ = godotenv.Load()

	var env ServerEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	info := svc.BackendInfo()
	slog.Info("Resolved verdict backend", "backend", info.Backend, "reason", info.Reason)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: routes(svc, cfg, env),
	}

	go statsReport(env.StatsInterval)

	go func() {
		slog.Info("GCE server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"report_store", cfg.DefaultReportStore)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func routes(svc gce.Service, cfg *config.ServerConfig, env ServerEnv) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(env.RequestTimeout))

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		info := svc.BackendInfo()
		render.JSON(w, req, map[string]string{
			"status":  "ok",
			"backend": info.Backend,
		})
	})

	handler := api.NewHandler(svc)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Auth(cfg.APISecret))
		r.Mount("/", handler.Routes())
	})

	return r
}

// statsReport periodically logs process memory usage.
func statsReport(interval time.Duration) {
	if interval <= 0 {
		return
	}

	var m runtime.MemStats
	ticker := time.NewTicker(interval)
	for range ticker.C {
		runtime.ReadMemStats(&m)

		slog.Info("stats",
			"alloc", humanize.Bytes(m.Alloc),
			"talloc", humanize.Bytes(m.TotalAlloc),
			"sys", humanize.Bytes(m.Sys),
			"numgc", m.NumGC,
			"goroutines", runtime.NumGoroutine())
	}
}
