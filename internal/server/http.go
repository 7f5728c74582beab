// Package server wires the HTTP routes, middleware, and health endpoint.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	authhandler "identity-service/internal/auth/handler"
	"identity-service/internal/security"
	"identity-service/internal/server/httpx"
	"identity-service/internal/server/middleware"
	userhandler "identity-service/internal/user/handler"
)

// Deps are the wired dependencies the router needs.
type Deps struct {
	Auth   *authhandler.Handler
	Users  *userhandler.Handler
	Codec  *security.TokenCodec
	DB     *sql.DB
	Tracer trace.Tracer
	Log    *slog.Logger
}

// NewRouter builds the full route tree: public auth routes, bearer-protected
// profile routes, admin routes behind the role check, and the health probe.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	d.Auth.RegisterRoutes(mux)

	requireAuth := middleware.RequireAuth(d.Codec)

	profile := http.NewServeMux()
	d.Users.RegisterProfileRoutes(profile)
	mux.Handle("/api/users/", requireAuth(profile))

	admin := http.NewServeMux()
	d.Users.RegisterAdminRoutes(admin)
	mux.Handle("/api/admin/", requireAuth(middleware.RequireAdmin(admin)))

	mux.HandleFunc("GET /healthz", healthHandler(d.DB))

	return middleware.Trace(d.Tracer, d.Log)(mux)
}

// NewHTTPServer returns an http.Server with sane timeouts for the router.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				httpx.Error(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
