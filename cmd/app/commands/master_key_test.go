package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func localSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestRunCreateMasterKey(t *testing.T) {
	ctx := context.Background()

	t.Run("plaintext-mode", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &out, "dev-key", "", "")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Plaintext Mode")
		require.Contains(t, out.String(), `MASTER_KEYS="dev-key:`)
		require.Contains(t, out.String(), `ACTIVE_MASTER_KEY_ID="dev-key"`)
	})

	t.Run("default-key-id", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &out, "", "", "")
		require.NoError(t, err)
		require.Contains(t, out.String(), `MASTER_KEYS="master-key-`)
	})

	t.Run("kms-mode", func(t *testing.T) {
		keyURI := localSecretsURI(t)

		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &out, "prod-key", "localsecrets", keyURI)
		require.NoError(t, err)
		require.Contains(t, out.String(), "KMS Mode")
		require.Contains(t, out.String(), `KMS_PROVIDER="localsecrets"`)
		require.Contains(t, out.String(), `MASTER_KEYS="prod-key:`)
	})

	t.Run("mismatched-kms-params", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &out, "", "localsecrets", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be set together")
	})

	t.Run("invalid-kms-uri", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCreateMasterKey(ctx, &out, "", "localsecrets", "invalid://uri")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}
