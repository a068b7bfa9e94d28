package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// AddressService is the address API's view of the resolver.
type AddressService interface {
	Create(ctx context.Context, addressText string) (domain.Address, error)
	List(ctx context.Context, limit, offset int) (domain.Page, error)
	Get(ctx context.Context, id string) (domain.Address, error)
}

// RefreshRunner triggers one staleness refresh batch.
type RefreshRunner interface {
	RefreshStale(ctx context.Context) (int, error)
}

// Server exposes the address API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	addresses  AddressService
	refresher  RefreshRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /addresses, /healthz, /readyz, and
// /metrics routes. refresher may be nil, in which case the manual refresh
// route is not registered.
func NewServer(addr string, addresses AddressService, refresher RefreshRunner, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			// Create runs two provider calls back to back.
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:    engine,
		addresses: addresses,
		refresher: refresher,
		logger:    logger,
	}

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.registerAddressRoutes(engine.Group("/addresses"))

	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// AllReady combines readiness checkers; the first failure wins.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checkers)
}

type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
