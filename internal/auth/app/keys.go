package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cinderauth/cinder/internal/auth/store"
	"github.com/cinderauth/cinder/pkg/cryptox"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

// InitKeychain resolves the signing secrets for every token category.
//
// Storage modes:
//   - "ephemeral": secrets come from config or are generated on startup
//     and live only in memory. Outstanding tokens die with a restart.
//   - "persistent": secrets are sealed under the master key and kept in
//     the database, so tokens survive restarts. First boot stores
//     whatever ephemeral resolution produced.
//
// The returned Sealer is nil in ephemeral mode.
func InitKeychain(ctx context.Context, cfg Config, secrets store.SigningSecrets, logger *slog.Logger) (*jwtx.Keychain, *cryptox.Sealer, error) {
	kcCfg := jwtx.KeychainConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
	}

	if cfg.KeyStorageMode != "persistent" {
		kc, err := jwtx.NewKeychain(kcCfg)
		if err != nil {
			return nil, nil, err
		}
		for _, category := range []jwtx.Category{jwtx.CategoryAccess, jwtx.CategoryRefresh} {
			if kc.Generated(category) {
				logger.Warn("generated ephemeral signing secret, tokens will not survive a restart",
					"category", category)
			}
		}
		return kc, nil, nil
	}

	sealer, err := cryptox.NewSealerFromFile(cfg.MasterKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("app: load master key: %w", err)
	}

	// Stored secrets win over configured ones: rotation may have replaced
	// the configured value in a previous run.
	stored := make(map[jwtx.Category]bool, 2)
	for _, entry := range []struct {
		category jwtx.Category
		target   *string
	}{
		{jwtx.CategoryAccess, &kcCfg.AccessSecret},
		{jwtx.CategoryRefresh, &kcCfg.RefreshSecret},
	} {
		sealed, err := secrets.Get(ctx, string(entry.category))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("app: load %s secret: %w", entry.category, err)
		}

		plain, err := sealer.Open(sealed)
		if err != nil {
			return nil, nil, fmt.Errorf("app: unseal %s secret: %w", entry.category, err)
		}
		*entry.target = string(plain)
		stored[entry.category] = true
	}

	kc, err := jwtx.NewKeychain(kcCfg)
	if err != nil {
		return nil, nil, err
	}

	for _, category := range []jwtx.Category{jwtx.CategoryAccess, jwtx.CategoryRefresh} {
		if stored[category] {
			logger.Info("loaded persistent signing secret", "category", category)
			continue
		}

		sealed, err := sealer.Seal(kc.Secret(category))
		if err != nil {
			return nil, nil, fmt.Errorf("app: seal %s secret: %w", category, err)
		}
		if err := secrets.Put(ctx, string(category), sealed); err != nil {
			return nil, nil, fmt.Errorf("app: persist %s secret: %w", category, err)
		}
		logger.Info("persisted new signing secret", "category", category,
			"generated", kc.Generated(category))
	}

	return kc, sealer, nil
}
