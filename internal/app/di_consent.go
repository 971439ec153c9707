package app

import (
	"fmt"

	consentHTTP "github.com/allisson/piivault/internal/consent/http"
	consentRepository "github.com/allisson/piivault/internal/consent/repository"
	consentUseCase "github.com/allisson/piivault/internal/consent/usecase"
	subjectRepository "github.com/allisson/piivault/internal/subject/repository"
)

// ConsentRepository returns the consent repository based on database driver.
func (c *Container) ConsentRepository() (consentUseCase.ConsentRepository, error) {
	var err error
	c.consentRepositoryInit.Do(func() {
		c.consentRepository, err = c.initConsentRepository()
		if err != nil {
			c.initErrors["consentRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentRepository"]; exists {
		return nil, storedErr
	}
	return c.consentRepository, nil
}

// ConsentUseCase returns the consent registry use case.
func (c *Container) ConsentUseCase() (consentUseCase.ConsentUseCase, error) {
	var err error
	c.consentUseCaseInit.Do(func() {
		c.consentUseCase, err = c.initConsentUseCase()
		if err != nil {
			c.initErrors["consentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentUseCase"]; exists {
		return nil, storedErr
	}
	return c.consentUseCase, nil
}

// ConsentHandler returns the HTTP handler for consent registry operations.
func (c *Container) ConsentHandler() (*consentHTTP.ConsentHandler, error) {
	var err error
	c.consentHandlerInit.Do(func() {
		c.consentHandler, err = c.initConsentHandler()
		if err != nil {
			c.initErrors["consentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentHandler"]; exists {
		return nil, storedErr
	}
	return c.consentHandler, nil
}

// initConsentRepository creates the consent repository based on the database driver.
func (c *Container) initConsentRepository() (consentUseCase.ConsentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for consent repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return consentRepository.NewPostgreSQLConsentRepository(db), nil
	case "mysql":
		return consentRepository.NewMySQLConsentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initConsentUseCase creates the consent use case with all its dependencies.
func (c *Container) initConsentUseCase() (consentUseCase.ConsentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for consent use case: %w", err)
	}

	consentRepo, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for consent use case: %w", err)
	}

	subjectRepo, err := c.initConsentSubjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject repository for consent use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for consent use case: %w", err)
	}

	baseUseCase := consentUseCase.NewConsentUseCase(txManager, consentRepo, subjectRepo, auditUC)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for consent use case: %w", err)
		}
		return consentUseCase.NewConsentUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initConsentSubjectRepository creates the subject repository slice the
// consent use case needs, based on the database driver.
func (c *Container) initConsentSubjectRepository() (consentUseCase.SubjectRepository, error) {
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

// initConsentHandler creates the consent HTTP handler.
func (c *Container) initConsentHandler() (*consentHTTP.ConsentHandler, error) {
	useCase, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for consent handler: %w", err)
	}

	return consentHTTP.NewConsentHandler(useCase, c.Logger()), nil
}
