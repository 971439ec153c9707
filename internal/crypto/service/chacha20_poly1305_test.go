package service

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
)

func newChaChaTestCipher(t *testing.T) AEAD {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewChaCha20Poly1305(key)
	require.NoError(t, err)
	return cipher
}

func TestNewChaCha20Poly1305(t *testing.T) {
	tests := []struct {
		name    string
		keySize int
		wantErr bool
	}{
		{name: "256-bit key", keySize: 32, wantErr: false},
		{name: "key too short", keySize: 16, wantErr: true},
		{name: "key too long", keySize: 64, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := make([]byte, tt.keySize)
			_, err := rand.Read(key)
			require.NoError(t, err)

			cipher, err := NewChaCha20Poly1305(key)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, cipher)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cipher)
			}
		})
	}
}

func TestChaCha20Poly1305Cipher_Encrypt(t *testing.T) {
	cipher := newChaChaTestCipher(t)

	t.Run("with AAD", func(t *testing.T) {
		plaintext := []byte("subject record payload")
		aad := []byte("envelope-id")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
		assert.NoError(t, err)
		assert.NotEqual(t, plaintext, ciphertext)
		assert.Len(t, nonce, 12)
	})

	t.Run("without AAD", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), nil)
		assert.NoError(t, err)
		assert.NotNil(t, ciphertext)
		assert.NotNil(t, nonce)
	})

	t.Run("empty plaintext", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte(""), []byte("aad"))
		assert.NoError(t, err)
		assert.NotNil(t, ciphertext)
		assert.NotNil(t, nonce)
	})

	t.Run("nonce is unique per call", func(t *testing.T) {
		_, nonce1, err := cipher.Encrypt([]byte("same input"), []byte("aad"))
		require.NoError(t, err)
		_, nonce2, err := cipher.Encrypt([]byte("same input"), []byte("aad"))
		require.NoError(t, err)

		assert.NotEqual(t, nonce1, nonce2)
	})
}

func TestChaCha20Poly1305Cipher_Decrypt(t *testing.T) {
	cipher := newChaChaTestCipher(t)

	t.Run("round trip", func(t *testing.T) {
		plaintext := []byte("subject record payload")
		aad := []byte("envelope-id")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, aad)
		assert.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("wrong AAD fails", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), []byte("envelope-1"))
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, []byte("envelope-2"))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, decrypted)
	})

	t.Run("wrong nonce fails", func(t *testing.T) {
		ciphertext, _, err := cipher.Encrypt([]byte("payload"), []byte("aad"))
		require.NoError(t, err)

		wrongNonce := make([]byte, 12)
		_, err = rand.Read(wrongNonce)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, wrongNonce, []byte("aad"))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, decrypted)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), []byte("aad"))
		require.NoError(t, err)

		ciphertext[0] ^= 1

		decrypted, err := cipher.Decrypt(ciphertext, nonce, []byte("aad"))
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, decrypted)
	})
}

func TestChaCha20Poly1305Cipher_RoundTripVariety(t *testing.T) {
	cipher := newChaChaTestCipher(t)

	testCases := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{
			name:      "short payload",
			plaintext: []byte("dob=1990-01-01"),
			aad:       []byte("metadata"),
		},
		{
			name:      "large payload",
			plaintext: bytes.Repeat([]byte("x"), 10000),
			aad:       []byte("large"),
		},
		{
			name:      "unicode payload",
			plaintext: []byte("name=Пример 世界 🔐"),
			aad:       []byte("unicode"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, nonce, err := cipher.Encrypt(tc.plaintext, tc.aad)
			require.NoError(t, err)

			decrypted, err := cipher.Decrypt(ciphertext, nonce, tc.aad)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, decrypted)
		})
	}
}
