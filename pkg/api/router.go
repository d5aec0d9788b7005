package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/rhc-coord/internal/logger"
	"github.com/marmos91/rhc-coord/pkg/api/auth"
	"github.com/marmos91/rhc-coord/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/rhc-coord/pkg/api/middleware"
	"github.com/marmos91/rhc-coord/pkg/node"
)

// NewRouter builds the chi router for n's operator status API.
//
// Routes:
//   - GET /health            - Liveness probe
//   - GET /health/ready      - Readiness probe
//   - GET /api/v1/status     - Clock, lease and consensus snapshot
//   - GET /api/v1/leases     - All known leases
//   - GET /api/v1/leases/{scopeKey}
//   - GET /api/v1/consensus/evidence
//   - GET /api/v1/consensus/rounds/{round}
//
// Every /api/v1 route requires a Bearer token issued out of band by
// coordctl; jwtService may be nil in tests, which disables auth entirely.
func NewRouter(n *node.Node, jwtService *auth.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	statusHandler := handlers.NewStatusHandler(n)
	leaseHandler := handlers.NewLeaseHandler(n)
	consensusHandler := handlers.NewConsensusHandler(n)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", statusHandler.Liveness)
		r.Get("/ready", statusHandler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if jwtService != nil {
			r.Use(apiMiddleware.JWTAuth(jwtService))
		}

		r.Get("/status", statusHandler.Detail)

		r.Route("/leases", func(r chi.Router) {
			r.Get("/", leaseHandler.List)
			r.Get("/{scopeKey}", leaseHandler.Get)
		})

		r.Route("/consensus", func(r chi.Router) {
			r.Get("/evidence", consensusHandler.Evidence)
			r.Get("/rounds/{round}", consensusHandler.Round)
		})
	})

	return r
}

// requestLogger logs every request using the internal logger: start at
// DEBUG, completion with status and duration at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
