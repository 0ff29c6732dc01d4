package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinderauth/cinder/internal/auth/store"
	"github.com/cinderauth/cinder/pkg/cryptox"
	"github.com/cinderauth/cinder/pkg/jwtx"
)

// KeyRotationService swaps the active signing secret for a token
// category at runtime.
//
// In ephemeral mode (Secrets == nil) the swap lives only in memory. In
// persistent mode the new secret is also sealed and written through to
// the store so it survives a restart.
//
// Either way the effect on verification is immediate and global: tokens
// signed under the previous secret stop verifying the moment the swap
// lands. There is no dual-secret grace window.
type KeyRotationService struct {
	Keychain *jwtx.Keychain

	// Secrets persists sealed secrets across restarts. nil in ephemeral mode.
	Secrets store.SigningSecrets
	Sealer  *cryptox.Sealer

	Logger *slog.Logger
}

// RotationResult reports what a rotation did, for the admin endpoint and
// the logs. Secrets themselves never appear here, only fingerprints.
type RotationResult struct {
	Category          jwtx.Category `json:"category"`
	SecretFingerprint string        `json:"secret_fingerprint"`
	Persisted         bool          `json:"persisted"`
	RotatedAt         time.Time     `json:"rotated_at"`
}

// Rotate validates the new secret, swaps it in atomically, and persists
// it when a secret store is wired. Outstanding tokens for the category
// become unverifiable; clients will see a verification failure and
// should simply re-authenticate.
func (s *KeyRotationService) Rotate(ctx context.Context, category jwtx.Category, newSecret string) (*RotationResult, error) {
	if err := s.Keychain.Rotate(category, newSecret); err != nil {
		return nil, err
	}

	result := &RotationResult{
		Category:          category,
		SecretFingerprint: cryptox.Fingerprint(newSecret),
		RotatedAt:         time.Now().UTC(),
	}

	if s.Secrets != nil && s.Sealer != nil {
		sealed, err := s.Sealer.Seal([]byte(newSecret))
		if err != nil {
			return nil, fmt.Errorf("service: seal rotated secret: %w", err)
		}
		if err := s.Secrets.Put(ctx, string(category), sealed); err != nil {
			// The in-memory swap already happened and verification is
			// consistent; only restart durability is degraded.
			return nil, fmt.Errorf("service: persist rotated secret: %w", err)
		}
		result.Persisted = true
	}

	if s.Logger != nil {
		s.Logger.Warn("signing secret rotated, outstanding tokens are now invalid",
			"category", category,
			"fingerprint", result.SecretFingerprint,
			"persisted", result.Persisted,
		)
	}

	return result, nil
}
