package jwtx

import (
	"fmt"
	"sync/atomic"

	"github.com/cinderauth/cinder/pkg/cryptox"
)

// Secret category tags. Access and refresh tokens are signed under
// independent secrets so compromising one doesn't compromise the other.
// Temporary tokens ride on the access secret.
type Category string

const (
	CategoryAccess  Category = "access"
	CategoryRefresh Category = "refresh"
)

// MinSecretLength is the shortest signing secret we accept. Anything
// shorter makes HS256 brute-forceable enough to matter.
const MinSecretLength = 16

// GeneratedSecretBytes is the entropy used when we have to make up a
// secret ourselves (43 chars once base64url encoded).
const GeneratedSecretBytes = 32

// Keychain holds the active signing secret per category. Lookups are
// lock-free; rotation is a single atomic pointer swap, so concurrent
// verifications observe either the old or the new secret, never a
// half-written one.
type Keychain struct {
	access  atomic.Pointer[[]byte]
	refresh atomic.Pointer[[]byte]

	generated map[Category]bool
}

// KeychainConfig carries externally supplied secrets. Empty fields are
// filled with freshly generated random secrets.
type KeychainConfig struct {
	AccessSecret  string
	RefreshSecret string
}

// NewKeychain resolves signing secrets for every category. A supplied
// secret shorter than MinSecretLength is rejected outright so the service
// fails at construction instead of running with weak material.
func NewKeychain(cfg KeychainConfig) (*Keychain, error) {
	kc := &Keychain{generated: make(map[Category]bool, 2)}

	for _, entry := range []struct {
		category Category
		supplied string
	}{
		{CategoryAccess, cfg.AccessSecret},
		{CategoryRefresh, cfg.RefreshSecret},
	} {
		secret, generated, err := resolveSecret(entry.supplied)
		if err != nil {
			return nil, fmt.Errorf("jwtx: %s secret: %w", entry.category, err)
		}
		kc.store(entry.category, secret)
		kc.generated[entry.category] = generated
	}

	return kc, nil
}

func resolveSecret(supplied string) (secret []byte, generated bool, err error) {
	if supplied == "" {
		s, err := cryptox.GenerateSecret(GeneratedSecretBytes)
		if err != nil {
			return nil, false, err
		}
		return []byte(s), true, nil
	}

	if len(supplied) < MinSecretLength {
		return nil, false, ErrWeakSecret
	}
	return []byte(supplied), false, nil
}

// Secret returns the active signing secret for a category. The returned
// slice must not be mutated.
func (k *Keychain) Secret(category Category) []byte {
	var p *[]byte
	switch category {
	case CategoryRefresh:
		p = k.refresh.Load()
	default:
		p = k.access.Load()
	}
	if p == nil {
		return nil
	}
	return *p
}

// Rotate swaps the active secret for a category. The effect is immediate
// and global: tokens signed under the previous secret stop verifying.
// There is no dual-secret grace window; callers observing a verification
// failure right after rotation should treat it as "re-authenticate".
func (k *Keychain) Rotate(category Category, newSecret string) error {
	if len(newSecret) < MinSecretLength {
		return ErrWeakSecret
	}
	switch category {
	case CategoryAccess, CategoryRefresh:
	default:
		return fmt.Errorf("jwtx: unknown secret category %q", category)
	}

	k.store(category, []byte(newSecret))
	return nil
}

// Generated reports whether the category's secret was made up at
// construction rather than supplied. Useful for startup logging only;
// the map is never written after NewKeychain returns.
func (k *Keychain) Generated(category Category) bool {
	return k.generated[category]
}

func (k *Keychain) store(category Category, secret []byte) {
	switch category {
	case CategoryRefresh:
		k.refresh.Store(&secret)
	default:
		k.access.Store(&secret)
	}
}
