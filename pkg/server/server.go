package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/contentgraph/internal/manager"
)

// DefaultWorkspace is used when a request names no workspace.
const DefaultWorkspace = "default"

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.Manager
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.Manager) *Server {
	r := gin.Default()
	s := &Server{
		manager: mgr,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/v1")
	v1.GET("/workspaces", s.handleWorkspaces)
	v1.GET("/types", s.handleTypes)

	v1.GET("/namespaces", s.handleNamespaces)
	v1.POST("/namespaces", s.handleRegisterNamespace)
	v1.DELETE("/namespaces", s.handleUnregisterNamespace)

	v1.POST("/paths/normalize", s.handleNormalize)
	v1.POST("/paths/resolve", s.handleResolve)
	v1.POST("/paths/relative", s.handleRelative)

	v1.POST("/values/convert", s.handleConvert)
	v1.POST("/properties", s.handleProperty)

	v1.POST("/binaries", s.handlePutBinary)
	v1.GET("/binaries/:hash", s.handleGetBinary)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Serve runs the server on addr until ctx is done, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("server shutting down", "addr", addr)
	return httpSrv.Shutdown(shutdownCtx)
}
