// Package server serves the gateway over HTTP with gin. Every route other than /healthz
// is handed to the dispatcher, which owns routing for the configured mode.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/config"
	log "github.com/tuannvm/jira-gateway/internal/logging"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// maxBodyBytes caps the request body read into an InboundEvent
const maxBodyBytes = 10 << 20

// Dispatcher runs one inbound event through the gateway
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.InboundEvent) models.GatewayResponse
	Mode() string
}

// RouterOptions configures the gin engine
type RouterOptions struct {
	// Tracing enables the otelgin middleware under ServiceName
	Tracing     bool
	ServiceName string
}

// NewRouter builds the gin engine for the dispatcher
func NewRouter(d Dispatcher, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// otel span first so recovery and request logs carry the trace
	if opts.Tracing {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(RequestID())
	router.Use(Recovery())
	router.Use(Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": d.Mode()})
	})
	router.NoRoute(Handler(d))

	return router
}

// Handler adapts the dispatcher to a gin handler
func Handler(d Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := InboundEvent(c)
		if err != nil {
			resp := apierror.Translate(err)
			c.JSON(resp.StatusCode, resp.Body)
			return
		}

		resp := d.Dispatch(c.Request.Context(), event)
		c.JSON(resp.StatusCode, resp.Body)
	}
}

// InboundEvent converts the gin request into the gateway's transport-neutral event
func InboundEvent(c *gin.Context) (models.InboundEvent, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return models.InboundEvent{}, apierror.PayloadTooLarge(fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes))
			}
			return models.InboundEvent{}, apierror.Validation("Failed to read request body")
		}
	}

	return models.InboundEvent{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		Headers:  c.Request.Header,
		Query:    c.Request.URL.Query(),
		Body:     body,
		SourceIP: c.ClientIP(),
	}, nil
}

// Server wraps the HTTP server serving the gateway
type Server struct {
	httpServer *http.Server
}

// New creates the HTTP server for cfg
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Infof("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
