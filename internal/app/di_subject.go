package app

import (
	"fmt"

	subjectHTTP "github.com/allisson/piivault/internal/subject/http"
	subjectRepository "github.com/allisson/piivault/internal/subject/repository"
	subjectUseCase "github.com/allisson/piivault/internal/subject/usecase"
)

// SubjectRepository returns the subject repository based on database driver.
func (c *Container) SubjectRepository() (subjectUseCase.SubjectRepository, error) {
	var err error
	c.subjectRepositoryInit.Do(func() {
		c.subjectRepository, err = c.initSubjectRepository()
		if err != nil {
			c.initErrors["subjectRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectRepository"]; exists {
		return nil, storedErr
	}
	return c.subjectRepository, nil
}

// SubjectUseCase returns the subject registry use case.
func (c *Container) SubjectUseCase() (subjectUseCase.SubjectUseCase, error) {
	var err error
	c.subjectUseCaseInit.Do(func() {
		c.subjectUseCase, err = c.initSubjectUseCase()
		if err != nil {
			c.initErrors["subjectUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectUseCase"]; exists {
		return nil, storedErr
	}
	return c.subjectUseCase, nil
}

// SubjectHandler returns the HTTP handler for subject registry operations.
func (c *Container) SubjectHandler() (*subjectHTTP.SubjectHandler, error) {
	var err error
	c.subjectHandlerInit.Do(func() {
		c.subjectHandler, err = c.initSubjectHandler()
		if err != nil {
			c.initErrors["subjectHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["subjectHandler"]; exists {
		return nil, storedErr
	}
	return c.subjectHandler, nil
}

// initSubjectRepository creates the subject repository based on the database driver.
func (c *Container) initSubjectRepository() (subjectUseCase.SubjectRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for subject repository: %w", err)
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

// initSubjectUseCase creates the subject use case with all its dependencies.
func (c *Container) initSubjectUseCase() (subjectUseCase.SubjectUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for subject use case: %w", err)
	}

	subjectRepo, err := c.SubjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject repository for subject use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for subject use case: %w", err)
	}

	baseUseCase := subjectUseCase.NewSubjectUseCase(txManager, subjectRepo, auditUC)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for subject use case: %w", err)
		}
		return subjectUseCase.NewSubjectUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initSubjectHandler creates the subject HTTP handler.
func (c *Container) initSubjectHandler() (*subjectHTTP.SubjectHandler, error) {
	useCase, err := c.SubjectUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject use case for subject handler: %w", err)
	}

	return subjectHTTP.NewSubjectHandler(useCase, c.Logger()), nil
}
