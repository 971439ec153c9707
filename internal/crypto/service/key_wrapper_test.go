package service

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piivault/internal/config"
	cryptoDomain "github.com/allisson/piivault/internal/crypto/domain"
)

func newTestMasterKey(t *testing.T, id string) *cryptoDomain.MasterKey {
	t.Helper()
	key := make([]byte, cryptoDomain.MasterKeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return &cryptoDomain.MasterKey{ID: id, Key: key}
}

func newTestKeyWrapper(t *testing.T) *KeyWrapperService {
	t.Helper()
	kw, err := NewKeyWrapper(NewAEADManager(), config.MinKDFIterations)
	require.NoError(t, err)
	return kw
}

func TestNewKeyWrapper(t *testing.T) {
	t.Run("valid iterations", func(t *testing.T) {
		kw, err := NewKeyWrapper(NewAEADManager(), config.MinKDFIterations)
		assert.NoError(t, err)
		assert.NotNil(t, kw)
	})

	t.Run("iterations below the floor", func(t *testing.T) {
		kw, err := NewKeyWrapper(NewAEADManager(), config.MinKDFIterations-1)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivation)
		assert.Nil(t, kw)
	})

	t.Run("iterations above the cap", func(t *testing.T) {
		kw, err := NewKeyWrapper(NewAEADManager(), maxKDFIterations+1)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivation)
		assert.Nil(t, kw)
	})
}

func TestKeyWrapperService_GenerateDataKey(t *testing.T) {
	kw := newTestKeyWrapper(t)

	key1, err := kw.GenerateDataKey()
	require.NoError(t, err)
	assert.Len(t, key1, cryptoDomain.DataKeySize)

	key2, err := kw.GenerateDataKey()
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)
}

func TestKeyWrapperService_WrapUnwrap(t *testing.T) {
	kw := newTestKeyWrapper(t)
	masterKey := newTestMasterKey(t, "key1")

	for _, alg := range []cryptoDomain.Algorithm{cryptoDomain.AESGCM, cryptoDomain.ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			dataKey, err := kw.GenerateDataKey()
			require.NoError(t, err)

			wrapped, salt, err := kw.Wrap(masterKey, dataKey, alg)
			require.NoError(t, err)
			assert.Len(t, salt, cryptoDomain.SaltSize)
			assert.Greater(t, len(wrapped), wrapHeaderSize+cryptoDomain.DataKeySize)
			assert.NotContains(t, string(wrapped), string(dataKey))

			unwrapped, err := kw.Unwrap(masterKey, wrapped, salt, alg)
			require.NoError(t, err)
			assert.Equal(t, dataKey, unwrapped)
		})
	}
}

func TestKeyWrapperService_Wrap(t *testing.T) {
	kw := newTestKeyWrapper(t)
	masterKey := newTestMasterKey(t, "key1")

	t.Run("rejects data key of wrong size", func(t *testing.T) {
		_, _, err := kw.Wrap(masterKey, make([]byte, 16), cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("rejects unsupported algorithm", func(t *testing.T) {
		dataKey, err := kw.GenerateDataKey()
		require.NoError(t, err)

		_, _, err = kw.Wrap(masterKey, dataKey, cryptoDomain.Algorithm("rot13"))
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})

	t.Run("fresh salt per wrap", func(t *testing.T) {
		dataKey, err := kw.GenerateDataKey()
		require.NoError(t, err)

		_, salt1, err := kw.Wrap(masterKey, dataKey, cryptoDomain.AESGCM)
		require.NoError(t, err)
		_, salt2, err := kw.Wrap(masterKey, dataKey, cryptoDomain.AESGCM)
		require.NoError(t, err)

		assert.NotEqual(t, salt1, salt2)
	})
}

func TestKeyWrapperService_Unwrap(t *testing.T) {
	kw := newTestKeyWrapper(t)
	masterKey := newTestMasterKey(t, "key1")

	dataKey, err := kw.GenerateDataKey()
	require.NoError(t, err)

	wrapped, salt, err := kw.Wrap(masterKey, dataKey, cryptoDomain.AESGCM)
	require.NoError(t, err)

	t.Run("wrong master key material", func(t *testing.T) {
		other := newTestMasterKey(t, "key1")

		unwrapped, err := kw.Unwrap(other, wrapped, salt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, unwrapped)
	})

	t.Run("wrong master key id", func(t *testing.T) {
		renamed := &cryptoDomain.MasterKey{ID: "key2", Key: masterKey.Key}

		unwrapped, err := kw.Unwrap(renamed, wrapped, salt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, unwrapped)
	})

	t.Run("tampered sealed bytes", func(t *testing.T) {
		tampered := append([]byte{}, wrapped...)
		tampered[len(tampered)-1] ^= 0x01

		unwrapped, err := kw.Unwrap(masterKey, tampered, salt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, unwrapped)
	})

	t.Run("tampered salt", func(t *testing.T) {
		badSalt := append([]byte{}, salt...)
		badSalt[0] ^= 0x01

		unwrapped, err := kw.Unwrap(masterKey, wrapped, badSalt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, unwrapped)
	})

	t.Run("algorithm mismatch", func(t *testing.T) {
		unwrapped, err := kw.Unwrap(masterKey, wrapped, salt, cryptoDomain.ChaCha20)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
		assert.Nil(t, unwrapped)
	})

	t.Run("truncated blob", func(t *testing.T) {
		unwrapped, err := kw.Unwrap(masterKey, wrapped[:wrapHeaderSize], salt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrMalformedWrappedKey)
		assert.Nil(t, unwrapped)
	})

	t.Run("salt of wrong size", func(t *testing.T) {
		unwrapped, err := kw.Unwrap(masterKey, wrapped, salt[:8], cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrMalformedWrappedKey)
		assert.Nil(t, unwrapped)
	})

	t.Run("embedded iterations out of range", func(t *testing.T) {
		tampered := append([]byte{}, wrapped...)
		binary.BigEndian.PutUint32(tampered[:wrapIterationsSize], 1)

		unwrapped, err := kw.Unwrap(masterKey, tampered, salt, cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrMalformedWrappedKey)
		assert.Nil(t, unwrapped)
	})
}

func TestKeyWrapperService_UnwrapHonorsEmbeddedIterations(t *testing.T) {
	// A blob written under an older, lower work factor must stay readable
	// after the configured iteration count is raised.
	writer, err := NewKeyWrapper(NewAEADManager(), config.MinKDFIterations)
	require.NoError(t, err)

	reader, err := NewKeyWrapper(NewAEADManager(), config.MinKDFIterations+50000)
	require.NoError(t, err)

	masterKey := newTestMasterKey(t, "key1")
	dataKey, err := writer.GenerateDataKey()
	require.NoError(t, err)

	wrapped, salt, err := writer.Wrap(masterKey, dataKey, cryptoDomain.AESGCM)
	require.NoError(t, err)

	unwrapped, err := reader.Unwrap(masterKey, wrapped, salt, cryptoDomain.AESGCM)
	require.NoError(t, err)
	assert.Equal(t, dataKey, unwrapped)
}
