package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kuuzukid/internal/discovery"
	"kuuzukid/internal/launcher"
	"kuuzukid/pkg/types"
)

// Service defines the discovery and lifecycle operations exposed to the host.
type Service interface {
	EnsureServer(ctx context.Context) (string, error)
	FindServer(ctx context.Context) (string, bool)
	ReadServerInfo() (*types.ServerInfo, error)
	CheckHealth(ctx context.Context, url string) bool
	SanityCheck() launcher.SanityReport
	Ready() bool
}

// serverBaseCtx is a process-level context that can be canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx != nil {
		serverBaseCtx = ctx
	}
}

// joinContexts returns a context that is canceled when either a or b is done.
// The returned cancel func must be called to release the goroutine when handler ends.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}

// NewMux wires the host-facing routes. hub may be nil when no event stream is
// wanted (CLI one-shot commands).
func NewMux(svc Service, hub *Hub) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods := corsAllowedMethods
		if len(methods) == 0 {
			methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		}
		headers := corsAllowedHeaders
		if len(headers) == 0 {
			headers = []string{"Accept", "Content-Type"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
		}))
	}

	r.Post("/server/ensure", func(w http.ResponseWriter, r *http.Request) {
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		url, err := svc.EnsureServer(ctx)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeEnsureError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.LocateResponse{Found: true, URL: url})
	})

	r.Get("/server/locate", func(w http.ResponseWriter, r *http.Request) {
		url, ok := svc.FindServer(r.Context())
		writeJSON(w, http.StatusOK, types.LocateResponse{Found: ok, URL: url})
	})

	r.Get("/server/info", func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.ReadServerInfo()
		if err != nil {
			switch {
			case discovery.IsPersistence(err):
				writeJSONError(w, http.StatusInternalServerError, "persistence", err.Error())
			case discovery.IsConfig(err):
				writeJSONError(w, http.StatusInternalServerError, "config", err.Error())
			default:
				writeJSONError(w, http.StatusInternalServerError, "", err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, types.InfoResponse{Found: info != nil, Info: info})
	})

	r.Get("/server/health", func(w http.ResponseWriter, r *http.Request) {
		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			writeJSONError(w, http.StatusBadRequest, "", "url query parameter is required")
			return
		}
		writeJSON(w, http.StatusOK, types.HealthResponse{Reachable: svc.CheckHealth(r.Context(), url)})
	})

	r.Get("/server/sanity", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.SanityCheck())
	})

	if hub != nil {
		r.Get("/events", hub.ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("locating"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// writeEnsureError maps launcher failure kinds to distinct statuses so the
// host shell can tell a packaging defect from a slow server.
func writeEnsureError(w http.ResponseWriter, err error) {
	switch {
	case launcher.IsTimeout(err):
		writeJSONError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case launcher.IsResource(err):
		writeJSONError(w, http.StatusServiceUnavailable, "resource", err.Error())
	case launcher.IsSpawn(err):
		writeJSONError(w, http.StatusInternalServerError, "spawn", err.Error())
	case discovery.IsConfig(err):
		writeJSONError(w, http.StatusInternalServerError, "config", err.Error())
	case discovery.IsPersistence(err):
		writeJSONError(w, http.StatusInternalServerError, "persistence", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Kind: kind, Code: status})
}
