package app

import (
	"fmt"

	envelopeHTTP "github.com/allisson/piivault/internal/envelope/http"
	envelopeRepository "github.com/allisson/piivault/internal/envelope/repository"
	envelopeUseCase "github.com/allisson/piivault/internal/envelope/usecase"
	rtbfRepository "github.com/allisson/piivault/internal/rtbf/repository"
	subjectRepository "github.com/allisson/piivault/internal/subject/repository"
)

// EnvelopeRepository returns the envelope repository based on database driver.
func (c *Container) EnvelopeRepository() (envelopeUseCase.EnvelopeRepository, error) {
	var err error
	c.envelopeRepositoryInit.Do(func() {
		c.envelopeRepository, err = c.initEnvelopeRepository()
		if err != nil {
			c.initErrors["envelopeRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeRepository"]; exists {
		return nil, storedErr
	}
	return c.envelopeRepository, nil
}

// EnvelopeUseCase returns the envelope store use case.
func (c *Container) EnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	var err error
	c.envelopeUseCaseInit.Do(func() {
		c.envelopeUseCase, err = c.initEnvelopeUseCase()
		if err != nil {
			c.initErrors["envelopeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeUseCase"]; exists {
		return nil, storedErr
	}
	return c.envelopeUseCase, nil
}

// EnvelopeHandler returns the HTTP handler for envelope store operations.
func (c *Container) EnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	var err error
	c.envelopeHandlerInit.Do(func() {
		c.envelopeHandler, err = c.initEnvelopeHandler()
		if err != nil {
			c.initErrors["envelopeHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeHandler"]; exists {
		return nil, storedErr
	}
	return c.envelopeHandler, nil
}

// initEnvelopeRepository creates the envelope repository based on the database driver.
func (c *Container) initEnvelopeRepository() (envelopeUseCase.EnvelopeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for envelope repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return envelopeRepository.NewPostgreSQLEnvelopeRepository(db), nil
	case "mysql":
		return envelopeRepository.NewMySQLEnvelopeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEnvelopeUseCase creates the envelope use case with all its dependencies.
func (c *Container) initEnvelopeUseCase() (envelopeUseCase.EnvelopeUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for envelope use case: %w", err)
	}

	envelopeRepo, err := c.EnvelopeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope repository for envelope use case: %w", err)
	}

	subjectRepo, err := c.initEnvelopeSubjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject repository for envelope use case: %w", err)
	}

	deletionRequestRepo, err := c.initEnvelopeDeletionRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request repository for envelope use case: %w", err)
	}

	consentUC, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for envelope use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for envelope use case: %w", err)
	}

	keyWrapper, err := c.KeyWrapper()
	if err != nil {
		return nil, fmt.Errorf("failed to get key wrapper for envelope use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key chain for envelope use case: %w", err)
	}

	algorithm, err := c.envelopeAlgorithm()
	if err != nil {
		return nil, err
	}

	baseUseCase := envelopeUseCase.NewEnvelopeUseCase(
		txManager,
		envelopeRepo,
		subjectRepo,
		deletionRequestRepo,
		consentUC,
		auditUC,
		c.AEADManager(),
		keyWrapper,
		masterKeyChain,
		algorithm,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for envelope use case: %w", err)
		}
		return envelopeUseCase.NewEnvelopeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initEnvelopeSubjectRepository creates the subject repository slice the
// envelope use case needs, based on the database driver.
func (c *Container) initEnvelopeSubjectRepository() (envelopeUseCase.SubjectRepository, error) {
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

// initEnvelopeDeletionRequestRepository creates the deletion request lookup
// the envelope use case needs for its pre-open status check.
func (c *Container) initEnvelopeDeletionRequestRepository() (envelopeUseCase.DeletionRequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
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

// initEnvelopeHandler creates the envelope HTTP handler.
func (c *Container) initEnvelopeHandler() (*envelopeHTTP.EnvelopeHandler, error) {
	useCase, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for envelope handler: %w", err)
	}

	return envelopeHTTP.NewEnvelopeHandler(useCase, c.Logger()), nil
}
