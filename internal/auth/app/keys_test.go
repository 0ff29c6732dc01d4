package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinderauth/cinder/internal/auth/store"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

type fakeSecrets struct {
	entries map[string][]byte
}

func (f *fakeSecrets) Get(_ context.Context, category string) ([]byte, error) {
	sealed, ok := f.entries[category]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sealed, nil
}

func (f *fakeSecrets) Put(_ context.Context, category string, sealed []byte) error {
	if f.entries == nil {
		f.entries = make(map[string][]byte)
	}
	f.entries[category] = sealed
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMasterKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("test-master-key-material"), 0o600))
	return path
}

func TestInitKeychainEphemeral(t *testing.T) {
	cfg := defaults()
	cfg.AccessSecret = "configured-access-0123456789"

	kc, sealer, err := InitKeychain(t.Context(), cfg, nil, discardLogger())
	require.NoError(t, err)
	require.Nil(t, sealer)

	require.Equal(t, []byte("configured-access-0123456789"), kc.Secret(jwtx.CategoryAccess))
	require.True(t, kc.Generated(jwtx.CategoryRefresh))
}

func TestInitKeychainPersistent(t *testing.T) {
	cfg := defaults()
	cfg.KeyStorageMode = "persistent"
	cfg.MasterKeyPath = writeMasterKey(t)

	secrets := &fakeSecrets{}

	// First boot generates and persists.
	kc, sealer, err := InitKeychain(t.Context(), cfg, secrets, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, sealer)
	require.Len(t, secrets.entries, 2)

	access := kc.Secret(jwtx.CategoryAccess)
	refresh := kc.Secret(jwtx.CategoryRefresh)

	// Stored sealed, not in the clear.
	require.NotEqual(t, access, secrets.entries["access"])

	// Second boot loads the same secrets back.
	kc2, _, err := InitKeychain(t.Context(), cfg, secrets, discardLogger())
	require.NoError(t, err)
	require.Equal(t, access, kc2.Secret(jwtx.CategoryAccess))
	require.Equal(t, refresh, kc2.Secret(jwtx.CategoryRefresh))
}

func TestInitKeychainPersistentWrongMasterKey(t *testing.T) {
	cfg := defaults()
	cfg.KeyStorageMode = "persistent"
	cfg.MasterKeyPath = writeMasterKey(t)

	secrets := &fakeSecrets{}
	_, _, err := InitKeychain(t.Context(), cfg, secrets, discardLogger())
	require.NoError(t, err)

	// A different master key can't unseal the stored secrets.
	otherPath := filepath.Join(t.TempDir(), "other.key")
	require.NoError(t, os.WriteFile(otherPath, []byte("different-master-key"), 0o600))
	cfg.MasterKeyPath = otherPath

	_, _, err = InitKeychain(t.Context(), cfg, secrets, discardLogger())
	require.Error(t, err)
}

func TestInitKeychainPersistentMissingKeyFile(t *testing.T) {
	cfg := defaults()
	cfg.KeyStorageMode = "persistent"
	cfg.MasterKeyPath = filepath.Join(t.TempDir(), "nope.key")

	_, _, err := InitKeychain(t.Context(), cfg, &fakeSecrets{}, discardLogger())
	require.Error(t, err)
}


