package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doseguard/internal/verification/handler"
	"doseguard/pkg/platform/httputil"
	"doseguard/pkg/platform/middleware/auth"
	"doseguard/pkg/platform/middleware/device"
	"doseguard/pkg/platform/middleware/metadata"
	"doseguard/pkg/platform/middleware/requesttime"
)

// healthCheck reports whether one dependency is reachable.
type healthCheck func(ctx context.Context) error

type routerDeps struct {
	logger       *slog.Logger
	verification *handler.Handler
	validator    auth.JWTValidator
	revocation   auth.TokenRevocationChecker
	checks       map[string]healthCheck
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)

	r.Get("/health", handleHealth(deps.checks, deps.logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.validator, deps.revocation, deps.logger))
		deps.verification.Register(r)
	})
	return r
}

func handleHealth(checks map[string]healthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				body[name] = "unavailable"
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
