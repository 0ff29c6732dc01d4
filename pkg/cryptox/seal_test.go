package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/pkg/cryptox"
)

func TestSealRoundTrip(t *testing.T) {
	sealer, err := cryptox.NewSealer([]byte("master-key-material"))
	require.NoError(t, err)

	plaintext := []byte("signing-secret-0123456789")

	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), string(plaintext))

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealNonDeterministic(t *testing.T) {
	sealer, err := cryptox.NewSealer([]byte("master-key-material"))
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same input"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same input"))
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestOpenFailures(t *testing.T) {
	sealer, err := cryptox.NewSealer([]byte("master-key-material"))
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("secret"))
	require.NoError(t, err)

	t.Run("tampered payload", func(t *testing.T) {
		tampered := append([]byte{}, sealed...)
		tampered[len(tampered)-1] ^= 0xFF

		_, err := sealer.Open(tampered)
		require.Error(t, err)
	})

	t.Run("wrong master key", func(t *testing.T) {
		other, err := cryptox.NewSealer([]byte("a-different-master-key"))
		require.NoError(t, err)

		_, err = other.Open(sealed)
		require.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := sealer.Open([]byte("tiny"))
		require.ErrorIs(t, err, cryptox.ErrSealedTooShort)
	})
}

func TestNewSealerFromFile(t *testing.T) {
	t.Run("loads key material", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte("file-master-key"), 0o600))

		sealer, err := cryptox.NewSealerFromFile(path)
		require.NoError(t, err)

		sealed, err := sealer.Seal([]byte("secret"))
		require.NoError(t, err)

		// Same file contents build an equivalent sealer.
		again, err := cryptox.NewSealerFromFile(path)
		require.NoError(t, err)
		opened, err := again.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, []byte("secret"), opened)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := cryptox.NewSealerFromFile(filepath.Join(t.TempDir(), "nope.key"))
		require.Error(t, err)
	})
}

func TestNewSealerRejectsEmptyMaterial(t *testing.T) {
	_, err := cryptox.NewSealer(nil)
	require.Error(t, err)
}

func TestGenerateSecret(t *testing.T) {
	t.Run("generates distinct url-safe secrets", func(t *testing.T) {
		a, err := cryptox.GenerateSecret(32)
		require.NoError(t, err)
		b, err := cryptox.GenerateSecret(32)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
		require.Len(t, a, 43) // 32 bytes base64url, no padding
		require.NotContains(t, a, "=")
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		_, err := cryptox.GenerateSecret(0)
		require.Error(t, err)
	})
}

func TestFingerprint(t *testing.T) {
	a := cryptox.Fingerprint("secret-value")
	b := cryptox.Fingerprint("secret-value")
	c := cryptox.Fingerprint("other-value")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotContains(t, a, "secret-value")
}
