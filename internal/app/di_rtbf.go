package app

import (
	"fmt"

	rtbfHTTP "github.com/allisson/piivault/internal/rtbf/http"
	rtbfRepository "github.com/allisson/piivault/internal/rtbf/repository"
	rtbfUseCase "github.com/allisson/piivault/internal/rtbf/usecase"
	subjectRepository "github.com/allisson/piivault/internal/subject/repository"
)

// DeletionRequestRepository returns the deletion request repository based on
// database driver.
func (c *Container) DeletionRequestRepository() (rtbfUseCase.DeletionRequestRepository, error) {
	var err error
	c.deletionRequestRepositoryInit.Do(func() {
		c.deletionRequestRepository, err = c.initDeletionRequestRepository()
		if err != nil {
			c.initErrors["deletionRequestRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deletionRequestRepository"]; exists {
		return nil, storedErr
	}
	return c.deletionRequestRepository, nil
}

// DeletionRequestUseCase returns the right-to-be-forgotten use case.
func (c *Container) DeletionRequestUseCase() (rtbfUseCase.DeletionRequestUseCase, error) {
	var err error
	c.deletionRequestUseCaseInit.Do(func() {
		c.deletionRequestUseCase, err = c.initDeletionRequestUseCase()
		if err != nil {
			c.initErrors["deletionRequestUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deletionRequestUseCase"]; exists {
		return nil, storedErr
	}
	return c.deletionRequestUseCase, nil
}

// DeletionRequestHandler returns the HTTP handler for deletion request operations.
func (c *Container) DeletionRequestHandler() (*rtbfHTTP.DeletionRequestHandler, error) {
	var err error
	c.deletionRequestHandlerInit.Do(func() {
		c.deletionRequestHandler, err = c.initDeletionRequestHandler()
		if err != nil {
			c.initErrors["deletionRequestHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deletionRequestHandler"]; exists {
		return nil, storedErr
	}
	return c.deletionRequestHandler, nil
}

// DeletionWorker returns the background worker draining pending deletion
// requests.
func (c *Container) DeletionWorker() (*rtbfUseCase.Worker, error) {
	var err error
	c.deletionWorkerInit.Do(func() {
		c.deletionWorker, err = c.initDeletionWorker()
		if err != nil {
			c.initErrors["deletionWorker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deletionWorker"]; exists {
		return nil, storedErr
	}
	return c.deletionWorker, nil
}

// initDeletionRequestRepository creates the deletion request repository based
// on the database driver.
func (c *Container) initDeletionRequestRepository() (rtbfUseCase.DeletionRequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for deletion request repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return rtbfRepository.NewPostgreSQLDeletionRequestRepository(db), nil
	case "mysql":
		return rtbfRepository.NewMySQLDeletionRequestRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDeletionRequestUseCase creates the deletion request use case with all
// its dependencies.
func (c *Container) initDeletionRequestUseCase() (rtbfUseCase.DeletionRequestUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for deletion request use case: %w", err)
	}

	deletionRequestRepo, err := c.DeletionRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request repository for deletion request use case: %w", err)
	}

	subjectRepo, err := c.initRTBFSubjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject repository for deletion request use case: %w", err)
	}

	envelopeUC, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for deletion request use case: %w", err)
	}

	consentUC, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for deletion request use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for deletion request use case: %w", err)
	}

	baseUseCase := rtbfUseCase.NewDeletionRequestUseCase(
		txManager,
		deletionRequestRepo,
		subjectRepo,
		envelopeUC,
		consentUC,
		auditUC,
		c.config.DeletionMaxAttempts,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for deletion request use case: %w", err)
		}
		return rtbfUseCase.NewDeletionRequestUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRTBFSubjectRepository creates the subject repository slice deletion
// processing needs, based on the database driver.
func (c *Container) initRTBFSubjectRepository() (rtbfUseCase.SubjectRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return subjectRepository.NewPostgreSQLSubjectRepository(db), nil
	case "mysql":
		return subjectRepository.NewMySQLSubjectRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDeletionRequestHandler creates the deletion request HTTP handler.
func (c *Container) initDeletionRequestHandler() (*rtbfHTTP.DeletionRequestHandler, error) {
	useCase, err := c.DeletionRequestUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request use case for deletion request handler: %w", err)
	}

	return rtbfHTTP.NewDeletionRequestHandler(useCase, c.Logger()), nil
}

// initDeletionWorker creates the deletion worker with the configured polling
// interval and batch size.
func (c *Container) initDeletionWorker() (*rtbfUseCase.Worker, error) {
	useCase, err := c.DeletionRequestUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request use case for deletion worker: %w", err)
	}

	workerConfig := rtbfUseCase.WorkerConfig{
		Interval:  c.config.DeletionWorkerInterval,
		BatchSize: c.config.DeletionWorkerBatchSize,
	}

	return rtbfUseCase.NewWorker(workerConfig, useCase, c.Logger()), nil
}
