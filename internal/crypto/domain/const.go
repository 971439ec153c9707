package domain

// Algorithm identifies the AEAD cipher used to protect a record. The value
// is persisted on every envelope so that records sealed before an algorithm
// change remain readable.
//
// All supported algorithms provide Authenticated Encryption with Associated
// Data (AEAD), ensuring both confidentiality and authenticity: decryption
// fails outright when the ciphertext, nonce or associated data was modified.
type Algorithm string

const (
	// AESGCM is the AES-256-GCM authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Hardware acceleration on CPUs with AES-NI
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// Key features:
	//   - 256-bit key size
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Constant-time implementation, fast without AES hardware
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Key material sizes in bytes.
const (
	// MasterKeySize is the required size of a master key.
	MasterKeySize = 32

	// DataKeySize is the size of the per-record data key generated for each
	// envelope.
	DataKeySize = 32

	// SaltSize is the size of the random salt used to derive a key
	// encryption key from a master key.
	SaltSize = 16
)

// ParseAlgorithm converts a configuration string into an Algorithm. It
// returns ErrUnsupportedAlgorithm for any value that does not name a
// supported AEAD cipher.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(value) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
