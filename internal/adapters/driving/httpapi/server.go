package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// AdminUser is the basic auth user name for admin routes.
const AdminUser = "admin"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("httpapi: retriever is required")

// Ports aggregates the services the API serves.
// Only Retriever is required; routes for missing services are not registered.
type Ports struct {
	Retriever driving.Retriever
	Answer    driving.AnswerService
	Sessions  driving.SessionRegistry
	Leads     driving.LeadService
	Refresh   driving.RefreshService

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Config holds listener settings.
type Config struct {
	Addr          string
	AdminPassword string
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	ports  *Ports
	engine *gin.Engine
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config, ports *Ports) (*Server, error) {
	if ports == nil || ports.Retriever == nil {
		return nil, ErrMissingRetriever
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{cfg: cfg, ports: ports, engine: engine}
	s.registerRoutes()
	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.POST("/search", s.handleSearch)
		if s.ports.Answer != nil {
			api.POST("/answer", s.handleAnswer)
		}
		if s.ports.Sessions != nil {
			api.DELETE("/sessions/:id", s.handleDropSession)
		}
		if s.ports.Leads != nil {
			api.POST("/leads", s.handleCaptureLead)
		}
	}

	if s.cfg.AdminPassword != "" {
		admin := s.engine.Group("/api/admin", gin.BasicAuth(gin.Accounts{AdminUser: s.cfg.AdminPassword}))
		if s.ports.Leads != nil {
			admin.GET("/leads", s.handleListLeads)
		}
		if s.ports.Refresh != nil {
			admin.POST("/refresh", s.handleRefresh)
		}
	}

	if s.ports.MCP != nil {
		s.engine.Any("/mcp", gin.WrapH(s.ports.MCP))
	}
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
