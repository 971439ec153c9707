// Package service provides entry hashing and HMAC signing for the audit
// ledger. Hashing binds each entry to its predecessor; signing binds the
// entry to a key derived from a master key so the ledger cannot be rewritten
// by anyone without key access.
package service

import (
	auditDomain "github.com/allisson/piivault/internal/audit/domain"
)

// Signer computes and verifies the tamper-evidence fields of audit entries.
type Signer interface {
	// EntryHash returns the SHA-256 digest of the entry's canonical form.
	// The digest covers PrevHash, so it also commits to the entry's position
	// in the ledger.
	EntryHash(entry *auditDomain.Entry) []byte

	// Sign returns the HMAC-SHA256 signature of the entry's canonical form
	// using a signing key derived from masterKey via HKDF.
	Sign(masterKey []byte, entry *auditDomain.Entry) ([]byte, error)

	// Verify recomputes the signature and compares it with entry.Signature.
	// Returns ErrSignatureInvalid on mismatch.
	Verify(masterKey []byte, entry *auditDomain.Entry) error
}
