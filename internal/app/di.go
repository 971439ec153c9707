// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/allisson/piivault/internal/audit/http"
	auditService "github.com/allisson/piivault/internal/audit/service"
	auditUseCase "github.com/allisson/piivault/internal/audit/usecase"
	"github.com/allisson/piivault/internal/config"
	consentHTTP "github.com/allisson/piivault/internal/consent/http"
	consentUseCase "github.com/allisson/piivault/internal/consent/usecase"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	cryptoService "github.com/allisson/piivault/internal/crypto/service"
	"github.com/allisson/piivault/internal/database"
	envelopeHTTP "github.com/allisson/piivault/internal/envelope/http"
	envelopeUseCase "github.com/allisson/piivault/internal/envelope/usecase"
	exportHTTP "github.com/allisson/piivault/internal/export/http"
	exportUseCase "github.com/allisson/piivault/internal/export/usecase"
	"github.com/allisson/piivault/internal/http"
	"github.com/allisson/piivault/internal/metrics"
	rtbfHTTP "github.com/allisson/piivault/internal/rtbf/http"
	rtbfUseCase "github.com/allisson/piivault/internal/rtbf/usecase"
	subjectHTTP "github.com/allisson/piivault/internal/subject/http"
	subjectUseCase "github.com/allisson/piivault/internal/subject/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Crypto services
	masterKeyChain *cryptoDomain.MasterKeyChain
	aeadManager    cryptoService.AEADManager
	keyWrapper     cryptoService.KeyWrapper
	kmsService     cryptoService.KMSService

	// Audit
	signer          auditService.Signer
	auditRepository auditUseCase.AuditRepository
	auditUseCase    auditUseCase.AuditUseCase
	auditHandler    *auditHTTP.AuditHandler

	// Subjects
	subjectRepository subjectUseCase.SubjectRepository
	subjectUseCase    subjectUseCase.SubjectUseCase
	subjectHandler    *subjectHTTP.SubjectHandler

	// Consents
	consentRepository consentUseCase.ConsentRepository
	consentUseCase    consentUseCase.ConsentUseCase
	consentHandler    *consentHTTP.ConsentHandler

	// Envelopes
	envelopeRepository envelopeUseCase.EnvelopeRepository
	envelopeUseCase    envelopeUseCase.EnvelopeUseCase
	envelopeHandler    *envelopeHTTP.EnvelopeHandler

	// Deletion requests
	deletionRequestRepository rtbfUseCase.DeletionRequestRepository
	deletionRequestUseCase    rtbfUseCase.DeletionRequestUseCase
	deletionRequestHandler    *rtbfHTTP.DeletionRequestHandler
	deletionWorker            *rtbfUseCase.Worker

	// Exports
	exportUseCase exportUseCase.ExportUseCase
	exportHandler *exportHTTP.ExportHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                            sync.Mutex
	loggerInit                    sync.Once
	dbInit                        sync.Once
	txManagerInit                 sync.Once
	metricsProviderInit           sync.Once
	businessMetricsInit           sync.Once
	masterKeyChainInit            sync.Once
	aeadManagerInit               sync.Once
	keyWrapperInit                sync.Once
	kmsServiceInit                sync.Once
	signerInit                    sync.Once
	auditRepositoryInit           sync.Once
	auditUseCaseInit              sync.Once
	auditHandlerInit              sync.Once
	subjectRepositoryInit         sync.Once
	subjectUseCaseInit            sync.Once
	subjectHandlerInit            sync.Once
	consentRepositoryInit         sync.Once
	consentUseCaseInit            sync.Once
	consentHandlerInit            sync.Once
	envelopeRepositoryInit        sync.Once
	envelopeUseCaseInit           sync.Once
	envelopeHandlerInit           sync.Once
	deletionRequestRepositoryInit sync.Once
	deletionRequestUseCaseInit    sync.Once
	deletionRequestHandlerInit    sync.Once
	deletionWorkerInit            sync.Once
	exportUseCaseInit             sync.Once
	exportHandlerInit             sync.Once
	httpServerInit                sync.Once
	metricsServerInit             sync.Once
	initErrors                    map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled it returns a no-op implementation so use cases never check the flag.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus scrape endpoint server.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Flush pending metrics if the provider was initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Zero master key material last, after everything using it stopped
	if c.masterKeyChain != nil {
		c.masterKeyChain.Close()
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initHTTPServer creates the API HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	subjectHandler, err := c.SubjectHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject handler for http server: %w", err)
	}

	envelopeHandler, err := c.EnvelopeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope handler for http server: %w", err)
	}

	consentHandler, err := c.ConsentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent handler for http server: %w", err)
	}

	deletionRequestHandler, err := c.DeletionRequestHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request handler for http server: %w", err)
	}

	exportHandler, err := c.ExportHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get export handler for http server: %w", err)
	}

	auditHandler, err := c.AuditHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit handler for http server: %w", err)
	}

	handlers := http.Handlers{
		Subject:         subjectHandler,
		Envelope:        envelopeHandler,
		Consent:         consentHandler,
		DeletionRequest: deletionRequestHandler,
		Export:          exportHandler,
		Audit:           auditHandler,
	}

	var meterProvider *metrics.Provider
	if c.config.MetricsEnabled {
		meterProvider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		return http.NewServer(c.config, handlers, logger, meterProvider.MeterProvider()), nil
	}

	return http.NewServer(c.config, handlers, logger, nil), nil
}

// initMetricsServer creates the Prometheus scrape endpoint server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	logger := c.Logger()

	var provider *metrics.Provider
	if c.config.MetricsEnabled {
		var err error
		provider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
		}
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, logger, provider), nil
}
