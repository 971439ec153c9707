package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/piivault/internal/audit/domain"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
	apperrors "github.com/allisson/piivault/internal/errors"
)

// signingKeyInfo separates ledger signing from envelope encryption key usage.
// Versioned so the derivation can change without invalidating old entries.
var signingKeyInfo = []byte("audit-entry-signing-v1")

type signer struct{}

// NewSigner creates an audit entry signer using HKDF-SHA256 for key
// derivation and HMAC-SHA256 for signatures.
func NewSigner() Signer {
	return &signer{}
}

// EntryHash returns the SHA-256 digest of the entry's canonical form.
func (s *signer) EntryHash(entry *auditDomain.Entry) []byte {
	sum := sha256.Sum256(canonicalize(entry))
	return sum[:]
}

// Sign generates the HMAC-SHA256 signature of the entry's canonical form.
func (s *signer) Sign(masterKey []byte, entry *auditDomain.Entry) ([]byte, error) {
	signingKey, err := deriveSigningKey(masterKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive audit signing key")
	}
	defer cryptoDomain.Zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonicalize(entry))
	return mac.Sum(nil), nil
}

// Verify checks the entry signature against a recomputation from the entry's
// current content. The comparison is constant time.
func (s *signer) Verify(masterKey []byte, entry *auditDomain.Entry) error {
	expected, err := s.Sign(masterKey, entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to compute expected signature")
	}

	if !hmac.Equal(entry.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// master key.
func deriveSigningKey(masterKey []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterKey, nil, signingKeyInfo)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an entry to its canonical byte representation.
// Variable-length fields are length-prefixed so no two distinct entries share
// a representation. EntryHash and Signature are derived values and excluded.
func canonicalize(entry *auditDomain.Entry) []byte {
	buf := make([]byte, 0, 512)

	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.RequestID))
	buf = appendLengthPrefixed(buf, []byte(entry.ActorID))
	buf = appendLengthPrefixed(buf, []byte(entry.Action))

	if entry.SubjectID != nil {
		buf = appendLengthPrefixed(buf, entry.SubjectID[:])
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	if entry.EnvelopeID != nil {
		buf = appendLengthPrefixed(buf, entry.EnvelopeID[:])
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(entry.Outcome))
	buf = appendLengthPrefixed(buf, []byte(entry.Detail))
	buf = appendLengthPrefixed(buf, []byte(entry.SigningKeyID))
	buf = appendLengthPrefixed(buf, entry.PrevHash)

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
