package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/jw6ventures/filedav/internal/auth"
	"github.com/jw6ventures/filedav/internal/config"
	"github.com/jw6ventures/filedav/internal/dav"
	"github.com/jw6ventures/filedav/internal/http/ratelimit"
	"github.com/jw6ventures/filedav/internal/metrics"
	"github.com/jw6ventures/filedav/internal/store"
)

// NewRouter wires all HTTP routes for the DAV endpoints and operational
// surfaces.
func NewRouter(cfg *config.Config, st *store.Store, authService *auth.Service) http.Handler {
	r := chi.NewRouter()

	// DAV endpoints: 20 requests per second, burst of 50 (sync clients issue
	// tight request sequences)
	davRateLimiter := ratelimit.New(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	davHandler := dav.NewHandler(cfg, st, dav.WithObserver(patchMetricsObserver{}))

	r.Route("/dav", func(r chi.Router) {
		r.Use(davRateLimiter.Middleware())

		// OPTIONS without credentials gets the base advertisement; with
		// credentials it also reports per-resource PATCH support.
		r.With(optionalDAVAuth(authService)).MethodFunc(http.MethodOptions, "/*", davHandler.Options)

		r.Group(func(r chi.Router) {
			r.Use(authService.RequireDAVAuth)
			r.MethodFunc(http.MethodHead, "/*", davHandler.Head)
			r.MethodFunc(http.MethodGet, "/*", davHandler.Get)
			r.MethodFunc(http.MethodPut, "/*", davHandler.Put)
			r.MethodFunc(http.MethodDelete, "/*", davHandler.Delete)
			r.MethodFunc(http.MethodPatch, "/*", davHandler.Patch)
		})
	})

	return r
}

// optionalDAVAuth authenticates when credentials are present but lets
// anonymous requests through, for client capability discovery.
func optionalDAVAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || username == "" || password == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := authService.ValidateAppPassword(r.Context(), username, password)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// patchMetricsObserver counts applied partial updates by range kind.
type patchMetricsObserver struct{}

func (patchMetricsObserver) BeforePatch(w http.ResponseWriter, r *http.Request, res dav.Resource, spec dav.PatchSpec) bool {
	return true
}

func (patchMetricsObserver) AfterPatch(r *http.Request, res dav.Resource, spec dav.PatchSpec, etag string) {
	metrics.CountPatchRequest(spec.Kind.String())
}
