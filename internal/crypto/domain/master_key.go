// Package domain defines the cryptographic domain models for envelope
// encryption: the master key chain at the top of the key hierarchy, the AEAD
// algorithm identifiers persisted on every envelope, and the coarse error
// categories crypto operations surface.
package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/allisson/piivault/internal/config"
)

// MasterKey is a root key in the envelope encryption hierarchy. Master keys
// never touch stored data directly: each sealed record gets its own data key,
// and the master key only ever wraps those data keys through a derived key
// encryption key.
//
// Security considerations:
//   - Master keys must be exactly 32 bytes (256 bits)
//   - Keys must come from a cryptographically secure random source
//   - Multiple master keys can be held at once so that old records remain
//     readable after a rotation
type MasterKey struct {
	ID  string
	Key []byte
}

// KMSKeeper encrypts and decrypts small blobs, typically master key material,
// using an external key management service. It is satisfied by
// *secrets.Keeper from gocloud.dev.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperOpener opens a KMSKeeper for a key URI.
type KeeperOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

// MasterKeyChain holds a set of master keys with one designated as active.
//
// The chain exists for key rotation: new records are wrapped with the active
// key while records wrapped under older keys stay decryptable for as long as
// their key remains in the chain. Removing a key from the chain renders every
// record wrapped under it permanently unreadable, which is exactly the
// property crypto-shredding relies on.
//
// Thread safety: the chain uses sync.Map internally and is safe for
// concurrent readers.
type MasterKeyChain struct {
	activeID string
	keys     sync.Map
}

// NewMasterKeyChain creates an empty chain whose active key is expected to be
// added before use.
func NewMasterKeyChain(activeID string) *MasterKeyChain {
	return &MasterKeyChain{activeID: activeID}
}

// ActiveMasterKeyID returns the ID of the master key used to wrap new data
// keys. It corresponds to the ACTIVE_MASTER_KEY_ID environment variable.
func (m *MasterKeyChain) ActiveMasterKeyID() string {
	return m.activeID
}

// Active returns the active master key, or false when the chain does not
// hold a key under the active ID.
func (m *MasterKeyChain) Active() (*MasterKey, bool) {
	return m.Get(m.activeID)
}

// Get retrieves a master key by ID. Records store the ID of the key that
// wrapped them, so lookups by arbitrary ID are the normal read path during
// and after a rotation.
func (m *MasterKeyChain) Get(id string) (*MasterKey, bool) {
	if masterKey, ok := m.keys.Load(id); ok {
		return masterKey.(*MasterKey), ok
	}

	return nil, false
}

// Add stores a copy of the key material under the given ID. The caller keeps
// ownership of the passed slice and should zero it afterwards. Adding an ID
// twice replaces the previous entry.
func (m *MasterKeyChain) Add(id string, key []byte) error {
	if len(key) != MasterKeySize {
		return ErrInvalidKeySize
	}

	stored := make([]byte, MasterKeySize)
	copy(stored, key)
	m.keys.Store(id, &MasterKey{ID: id, Key: stored})

	return nil
}

// Len returns the number of keys currently held.
func (m *MasterKeyChain) Len() int {
	count := 0
	m.keys.Range(func(_, _ any) bool {
		count++
		return true
	})

	return count
}

// Close zeroes all held key material and resets the chain. Call it on
// shutdown so master keys do not outlive the process state that needs them.
func (m *MasterKeyChain) Close() {
	m.keys.Range(func(_, value any) bool {
		Zero(value.(*MasterKey).Key)
		return true
	})
	m.activeID = ""
	m.keys.Clear()
}

// LoadMasterKeyChain loads the master keychain according to the runtime
// configuration.
//
// When KMS_KEY_URI is set, each MASTER_KEYS entry is treated as a
// KMS-encrypted blob and unsealed through the opened keeper, so plaintext key
// material never appears in the environment. When it is unset the entries
// are plaintext base64 keys, which is only acceptable for development and
// test environments.
func LoadMasterKeyChain(
	ctx context.Context,
	cfg *config.Config,
	opener KeeperOpener,
	logger *slog.Logger,
) (*MasterKeyChain, error) {
	if cfg.KMSKeyURI == "" {
		logger.Warn("KMS_KEY_URI is not set, loading plaintext master keys from environment")
		return LoadMasterKeyChainFromEnv()
	}

	keeper, err := opener.OpenKeeper(ctx, cfg.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKMSUnavailable, err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close kms keeper", "error", closeErr)
		}
	}()

	mkc, err := buildMasterKeyChain(func(id string, blob []byte) ([]byte, error) {
		key, decryptErr := keeper.Decrypt(ctx, blob)
		if decryptErr != nil {
			return nil, fmt.Errorf("%w: unseal master key %s: %v", ErrKMSUnavailable, id, decryptErr)
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("master keychain loaded",
		"keys", mkc.Len(),
		"active_master_key_id", mkc.ActiveMasterKeyID(),
		"kms", true,
	)

	return mkc, nil
}

// LoadMasterKeyChainFromEnv loads plaintext master keys from environment
// variables:
//   - MASTER_KEYS: comma-separated entries in the form "id:base64key"
//   - ACTIVE_MASTER_KEY_ID: ID of the key used to wrap new data keys
//
// Format example:
//
//	MASTER_KEYS="2024-q3:YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY3OA==,2025-q1:MTIzNDU2Nzg5MGFiY2RlZmdoaWprbG1ub3BxcnN0dXZ3eA=="
//	ACTIVE_MASTER_KEY_ID="2025-q1"
//
// Each key must decode to exactly 32 bytes. Temporary decoded buffers are
// zeroed once the chain holds its own copy, and on any error the partially
// built chain is closed so no key material leaks from a failed load.
func LoadMasterKeyChainFromEnv() (*MasterKeyChain, error) {
	return buildMasterKeyChain(func(_ string, blob []byte) ([]byte, error) {
		return blob, nil
	})
}

// buildMasterKeyChain parses MASTER_KEYS and ACTIVE_MASTER_KEY_ID, passing
// each decoded entry through unseal before storing it.
func buildMasterKeyChain(unseal func(id string, blob []byte) ([]byte, error)) (*MasterKeyChain, error) {
	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, ErrMasterKeysNotSet
	}

	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, ErrActiveMasterKeyIDNotSet
	}

	mkc := NewMasterKeyChain(active)

	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			mkc.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]
		blob, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			mkc.Close()
			return nil, fmt.Errorf("%w for %s: %v", ErrInvalidMasterKeyBase64, id, err)
		}
		key, err := unseal(id, blob)
		if err != nil {
			Zero(blob)
			mkc.Close()
			return nil, err
		}
		if err := mkc.Add(id, key); err != nil {
			Zero(key)
			Zero(blob)
			mkc.Close()
			return nil, fmt.Errorf(
				"%w: master key %s must be %d bytes, got %d",
				ErrInvalidKeySize,
				id,
				MasterKeySize,
				len(key),
			)
		}
		Zero(key)
		Zero(blob)
	}

	if _, ok := mkc.Get(active); !ok {
		mkc.Close()
		return nil, fmt.Errorf("%w: ACTIVE_MASTER_KEY_ID=%s", ErrActiveMasterKeyNotFound, active)
	}

	return mkc, nil
}
