package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/health"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/observer"
	"github.com/openalgoflow/engine/pkg/orchestrator"
	"github.com/openalgoflow/engine/pkg/scheduler"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/storage"
	"github.com/openalgoflow/engine/pkg/telemetry"
)

// Config holds HTTP server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	EnableCORS         bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}
}

// Deps collects everything the route handlers need. All fields are
// required except Stream, which is nil when streaming market data isn't
// configured.
type Deps struct {
	Store        storage.Store
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *scheduler.Scheduler
	Registry     *handlers.Registry
	Gateway      *gateway.Client
	Stream       *gateway.StreamClient
	Signer       *security.TokenSigner
	Cipher       *security.GatewayKeyCipher
	EngineConfig *config.Config
	Observers    *observer.Manager
	Logger       *logging.Logger

	// RedisClient, if set, backs every rate-limit tier with a shared
	// counter instead of per-process in-memory token buckets, so the
	// limits hold across a multi-instance deployment. Nil is a
	// supported single-instance default.
	RedisClient *redis.Client
}

// Server is the HTTP API server.
type Server struct {
	config Config
	deps   Deps

	httpServer        *http.Server
	healthChecker     *health.Checker
	telemetryProvider *telemetry.Provider
	logger            *logging.Logger
	hub               *hub

	authLimiter      *tieredLimiter
	executionLimiter *tieredLimiter
	mutationLimiter  *tieredLimiter
	readLimiter      *tieredLimiter
}

// New builds a Server wired to the given dependencies.
func New(cfg Config, deps Deps) (*Server, error) {
	telemetryConfig := telemetry.DefaultConfig()
	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetryConfig)
	if err != nil {
		return nil, fmt.Errorf("server: create telemetry provider: %w", err)
	}

	healthChecker := health.NewChecker("openalgoflow-engine", "0.1.0")
	healthChecker.RegisterCheck("gateway", func(ctx context.Context) error {
		if deps.Gateway == nil {
			return fmt.Errorf("gateway not configured")
		}
		return nil
	}, 5*time.Second, true)

	h := newHub()
	if deps.Observers != nil {
		deps.Observers.Register(h)
	}

	s := &Server{
		config:            cfg,
		deps:              deps,
		healthChecker:     healthChecker,
		telemetryProvider: telemetryProvider,
		logger:            deps.Logger,
		hub:               h,
		authLimiter:       newTieredLimiter("auth", 5, deps.RedisClient),
		executionLimiter:  newTieredLimiter("execution", 10, deps.RedisClient),
		mutationLimiter:   newTieredLimiter("mutation", 60, deps.RedisClient),
		readLimiter:       newTieredLimiter("read", 120, deps.RedisClient),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("GET /ws/executions", s.requireAuth(http.HandlerFunc(s.handleWebSocket)))

	mux.Handle("GET /auth/status", s.rateLimited(s.authLimiter, http.HandlerFunc(s.handleAuthStatus)))
	mux.Handle("POST /auth/setup", s.rateLimited(s.authLimiter, http.HandlerFunc(s.handleAuthSetup)))
	mux.Handle("POST /auth/login", s.rateLimited(s.authLimiter, http.HandlerFunc(s.handleAuthLogin)))
	mux.Handle("POST /auth/change-password", s.requireAuth(s.rateLimited(s.authLimiter, http.HandlerFunc(s.handleAuthChangePassword))))
	mux.Handle("POST /auth/logout", s.requireAuth(http.HandlerFunc(s.handleAuthLogout)))
	mux.Handle("GET /auth/verify", s.requireAuth(http.HandlerFunc(s.handleAuthVerify)))

	mux.Handle("GET /settings", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleGetSettings))))
	mux.Handle("PUT /settings", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handlePutSettings))))
	mux.Handle("POST /settings/test", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleTestSettings))))

	mux.Handle("GET /workflows", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleListWorkflows))))
	mux.Handle("POST /workflows", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleCreateWorkflow))))
	mux.Handle("GET /workflows/{id}", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleGetWorkflow))))
	mux.Handle("PUT /workflows/{id}", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleUpdateWorkflow))))
	mux.Handle("DELETE /workflows/{id}", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleDeleteWorkflow))))
	mux.Handle("POST /workflows/{id}/activate", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleActivateWorkflow))))
	mux.Handle("POST /workflows/{id}/deactivate", s.requireAuth(s.rateLimited(s.mutationLimiter, http.HandlerFunc(s.handleDeactivateWorkflow))))
	mux.Handle("POST /workflows/{id}/execute", s.requireAuth(s.rateLimited(s.executionLimiter, http.HandlerFunc(s.handleExecuteWorkflow))))
	mux.Handle("GET /workflows/{id}/executions", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleListExecutions))))

	// Anonymous webhook trigger: any source can invoke a stored workflow
	// by id, its JSON body forwarded into the execution as the "webhook"
	// trigger variable. Rate limited like any other execution.
	mux.Handle("POST /workflows/{id}/webhook", s.rateLimited(s.executionLimiter, http.HandlerFunc(s.handleWebhookTrigger)))

	mux.Handle("GET /symbols/search", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleSymbolSearch))))
	mux.Handle("GET /symbols/quotes", s.requireAuth(s.rateLimited(s.readLimiter, http.HandlerFunc(s.handleSymbolQuotes))))
}

func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// requireAuth verifies the bearer token and rejects anything else with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeErrorResponse(w, "missing bearer token", http.StatusUnauthorized, nil)
			return
		}
		if _, err := s.deps.Signer.Verify(token); err != nil {
			s.writeErrorResponse(w, "invalid or expired token", http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSONResponse writes a JSON response.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

// writeErrorResponse writes an error response. err may be nil.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int, err error) {
	logger := s.logger.WithField("status_code", statusCode)
	if err != nil {
		logger = logger.WithError(err)
	}
	logger.Error(message)

	body := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	s.writeJSONResponse(w, statusCode, body)
}

// Handler returns the server's root http.Handler, wired with middleware and
// routes. Exposed for tests that want to exercise routing without binding a
// real listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.WithField("address", s.config.Address).Info("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and everything it owns.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown http server: %w", err)
	}
	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Stop()
	}
	if s.deps.Stream != nil {
		_ = s.deps.Stream.Close()
	}
	s.hub.closeAll()
	if err := s.telemetryProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown telemetry: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("error", fmt.Sprintf("%v", err)).
					WithField("path", r.URL.Path).
					Error("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
