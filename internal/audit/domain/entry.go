// Package domain defines the core domain models for the tamper-evident audit
// ledger. Every security-relevant operation appends exactly one entry; entries
// are hash-chained and HMAC-signed so offline modification is detectable.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the operation an audit entry records.
type Action string

// Actions recorded by the engine.
const (
	ActionSubjectRegister  Action = "subject.register"
	ActionEnvelopeSeal     Action = "envelope.seal"
	ActionEnvelopeOpen     Action = "envelope.open"
	ActionEnvelopeDestroy  Action = "envelope.destroy"
	ActionConsentSet       Action = "consent.set"
	ActionConsentRevokeAll Action = "consent.revoke_all"
	ActionDeletionSubmit   Action = "deletion.submit"
	ActionDeletionProcess  Action = "deletion.process"
	ActionSubjectExport    Action = "subject.export"
)

// Outcome classifies how the recorded operation ended.
type Outcome string

// Outcomes. Denied covers consent and deletion-status refusals as well as
// failed ciphertext authentication.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// HashSize is the byte length of entry hashes, chain links and signatures
// (SHA-256 / HMAC-SHA256).
const HashSize = 32

// Entry is a single append-only audit record. PrevHash links the entry to its
// predecessor, EntryHash is the canonical digest of the entry itself and
// Signature authenticates the digest with a key derived from the master key
// identified by SigningKeyID.
type Entry struct {
	// ID is the unique identifier for this entry.
	ID uuid.UUID
	// Seq is the ledger position assigned by the store on insert. It defines
	// the order VerifyChain walks and is never exposed through the API.
	Seq int64
	// RequestID correlates the entry with the HTTP request that caused it
	// (empty for worker and CLI operations).
	RequestID string
	// ActorID identifies the caller the upstream service authenticated.
	ActorID string
	// Action is the operation recorded.
	Action Action
	// SubjectID references the data subject involved, when any.
	SubjectID *uuid.UUID
	// EnvelopeID references the envelope involved, when any.
	EnvelopeID *uuid.UUID
	// Outcome classifies the result.
	Outcome Outcome
	// Detail carries a short human-readable description. It must never
	// contain PII or plaintext.
	Detail string
	// PrevHash is the EntryHash of the previous ledger entry (GenesisHash for
	// the first entry).
	PrevHash []byte
	// EntryHash is the SHA-256 digest of the canonical entry form.
	EntryHash []byte
	// Signature is the HMAC-SHA256 of the canonical entry form.
	Signature []byte
	// SigningKeyID names the master key version whose derived key produced
	// Signature, so verification keeps working after key rotation.
	SigningKeyID string
	// CreatedAt is the UTC timestamp when the entry was recorded.
	CreatedAt time.Time
}

// GenesisHash returns the chain link value of the first ledger entry.
func GenesisHash() []byte {
	return make([]byte, HashSize)
}

// Filter narrows List queries. Nil or zero fields match everything.
type Filter struct {
	SubjectID     *uuid.UUID
	Action        Action
	Outcome       Outcome
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// VerifyReport summarizes an offline ledger integrity check.
type VerifyReport struct {
	// Checked is the number of entries examined.
	Checked int
	// Valid is true when every examined entry passed hash, signature and
	// chain-link verification.
	Valid bool
	// FirstInvalidID identifies the first entry that failed, when any.
	FirstInvalidID *uuid.UUID
	// Reason describes the first failure, when any.
	Reason string
}
