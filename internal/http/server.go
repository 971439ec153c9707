// Package http provides the API server: a gin router wiring every feature
// handler behind the shared middleware stack.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"

	auditHTTP "github.com/allisson/piivault/internal/audit/http"
	"github.com/allisson/piivault/internal/config"
	consentHTTP "github.com/allisson/piivault/internal/consent/http"
	envelopeHTTP "github.com/allisson/piivault/internal/envelope/http"
	exportHTTP "github.com/allisson/piivault/internal/export/http"
	"github.com/allisson/piivault/internal/metrics"
	rtbfHTTP "github.com/allisson/piivault/internal/rtbf/http"
	subjectHTTP "github.com/allisson/piivault/internal/subject/http"
)

// Handlers groups the feature handlers the server routes to.
type Handlers struct {
	Subject         *subjectHTTP.SubjectHandler
	Envelope        *envelopeHTTP.EnvelopeHandler
	Consent         *consentHTTP.ConsentHandler
	DeletionRequest *rtbfHTTP.DeletionRequestHandler
	Export          *exportHTTP.ExportHandler
	Audit           *auditHTTP.AuditHandler
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server with its router fully configured.
// meterProvider may be nil when metrics are disabled.
func NewServer(
	cfg *config.Config,
	handlers Handlers,
	logger *slog.Logger,
	meterProvider metric.MeterProvider,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := SetupRouter(cfg, handlers, logger, meterProvider)

	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with the middleware stack and every
// route. The health endpoint sits outside the actor requirement; everything
// under /v1 needs an identified actor.
func SetupRouter(
	cfg *config.Config,
	handlers Handlers,
	logger *slog.Logger,
	meterProvider metric.MeterProvider,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/v1")
	v1.Use(ActorMiddleware(logger))

	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}

	subjects := v1.Group("/subjects")
	{
		subjects.POST("", handlers.Subject.RegisterHandler)
		subjects.GET("", handlers.Subject.GetByEmailHandler)
		subjects.GET("/:subject_id", handlers.Subject.GetHandler)

		subjects.POST("/:subject_id/records", handlers.Envelope.SealHandler)
		subjects.GET("/:subject_id/records", handlers.Envelope.ListHandler)
		subjects.GET("/:subject_id/records/:envelope_id", handlers.Envelope.OpenHandler)
		subjects.DELETE("/:subject_id/records/:envelope_id", handlers.Envelope.DestroyHandler)

		subjects.PUT("/:subject_id/consents", handlers.Consent.SetConsentHandler)
		subjects.GET("/:subject_id/consents", handlers.Consent.ListCurrentHandler)
		subjects.GET("/:subject_id/consents/:purpose", handlers.Consent.GetStatusHandler)

		subjects.GET("/:subject_id/export", handlers.Export.ExportHandler)
	}

	deletionRequests := v1.Group("/deletion-requests")
	{
		deletionRequests.POST("", handlers.DeletionRequest.SubmitHandler)
		deletionRequests.GET("/:id", handlers.DeletionRequest.GetHandler)
		deletionRequests.POST("/:id/process", handlers.DeletionRequest.ProcessHandler)
	}

	v1.GET("/audit-entries", handlers.Audit.ListHandler)

	return router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
