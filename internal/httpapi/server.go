// Package httpapi exposes the task provider over HTTP.
//
//	GET    /tasks          list (projection, sort and filter query params)
//	GET    /tasks/:id      one task; Accept: text/plain exports it as text
//	POST   /tasks          create, 201 with Location
//	PATCH  /tasks[/:id]    update matching tasks, {"count": n}
//	DELETE /tasks[/:id]    delete matching tasks, {"count": n}
//	GET    /changes        server-sent change events
//
// Handlers only decode requests and map errors; all behavior lives in the
// provider.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roach88/workint/internal/provider"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Server is the workint HTTP server.
type Server struct {
	provider *provider.Provider
	router   *gin.Engine
	logger   *slog.Logger
}

// NewServer creates a server over p. A nil logger uses slog.Default().
func NewServer(p *provider.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	s := &Server{
		provider: p,
		router:   router,
		logger:   logger,
	}

	router.Use(gin.Recovery(), s.requestLogger())
	router.HandleMethodNotAllowed = true

	tasks := router.Group("/tasks")
	{
		tasks.GET("", s.handleList)
		tasks.POST("", s.handleCreate)
		tasks.PATCH("", s.handleUpdate)
		tasks.DELETE("", s.handleDelete)

		tasks.GET("/:id", s.handleGet)
		tasks.PATCH("/:id", s.handleUpdate)
		tasks.DELETE("/:id", s.handleDelete)
	}
	router.GET("/changes", s.handleChanges)

	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.Must(uuid.NewV7()).String()
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.logger.Info("request",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
