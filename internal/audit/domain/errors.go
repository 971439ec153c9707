package domain

import (
	apperrors "github.com/allisson/piivault/internal/errors"
)

var (
	// ErrSignatureInvalid indicates an entry whose signature does not match
	// its content: the ledger was modified outside the engine.
	ErrSignatureInvalid = apperrors.New("audit entry signature is invalid")

	// ErrChainNotInitialized indicates the chain head row is missing, which
	// means migrations have not run against this database.
	ErrChainNotInitialized = apperrors.Wrap(apperrors.ErrInternal, "audit chain head not initialized")
)
