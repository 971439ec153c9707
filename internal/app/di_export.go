package app

import (
	"fmt"

	exportHTTP "github.com/allisson/piivault/internal/export/http"
	exportService "github.com/allisson/piivault/internal/export/service"
	exportUseCase "github.com/allisson/piivault/internal/export/usecase"
	rtbfRepository "github.com/allisson/piivault/internal/rtbf/repository"
)

// ExportUseCase returns the subject data export use case.
func (c *Container) ExportUseCase() (exportUseCase.ExportUseCase, error) {
	var err error
	c.exportUseCaseInit.Do(func() {
		c.exportUseCase, err = c.initExportUseCase()
		if err != nil {
			c.initErrors["exportUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["exportUseCase"]; exists {
		return nil, storedErr
	}
	return c.exportUseCase, nil
}

// ExportHandler returns the HTTP handler for subject data exports.
func (c *Container) ExportHandler() (*exportHTTP.ExportHandler, error) {
	var err error
	c.exportHandlerInit.Do(func() {
		c.exportHandler, err = c.initExportHandler()
		if err != nil {
			c.initErrors["exportHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["exportHandler"]; exists {
		return nil, storedErr
	}
	return c.exportHandler, nil
}

// initExportUseCase creates the export use case with all its dependencies.
// When EXPORT_AGE_RECIPIENT is set, export payloads are encrypted to that
// age recipient; otherwise they are plain JSON.
func (c *Container) initExportUseCase() (exportUseCase.ExportUseCase, error) {
	subjectRepo, err := c.SubjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get subject repository for export use case: %w", err)
	}

	envelopeUC, err := c.EnvelopeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope use case for export use case: %w", err)
	}

	consentUC, err := c.ConsentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent use case for export use case: %w", err)
	}

	deletionRequestRepo, err := c.initExportDeletionRequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion request repository for export use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for export use case: %w", err)
	}

	var encryptor exportUseCase.Encryptor
	if c.config.ExportAgeRecipient != "" {
		ageEncryptor, err := exportService.NewAgeEncryptor(c.config.ExportAgeRecipient)
		if err != nil {
			return nil, fmt.Errorf("invalid EXPORT_AGE_RECIPIENT: %w", err)
		}
		encryptor = ageEncryptor
	}

	baseUseCase := exportUseCase.NewExportUseCase(
		subjectRepo,
		envelopeUC,
		consentUC,
		deletionRequestRepo,
		auditUC,
		encryptor,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for export use case: %w", err)
		}
		return exportUseCase.NewExportUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initExportDeletionRequestRepository creates the deletion request lookup the
// export needs, based on the database driver.
func (c *Container) initExportDeletionRequestRepository() (exportUseCase.DeletionRequestRepository, error) {
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

// initExportHandler creates the export HTTP handler.
func (c *Container) initExportHandler() (*exportHTTP.ExportHandler, error) {
	useCase, err := c.ExportUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get export use case for export handler: %w", err)
	}

	return exportHTTP.NewExportHandler(useCase, c.Logger()), nil
}
