package auth

import (
	"fmt"

	"github.com/ashita-ai/keifu/internal/model"
)

// Keyring maps configured API keys to roles. Keys are digested with Argon2id
// at construction; plaintext keys are never retained.
type Keyring struct {
	entries []keyringEntry
}

type keyringEntry struct {
	digest keyDigest
	role   model.Role
}

// NewKeyring builds a keyring from per-role API keys. Empty keys are skipped,
// which disables direct token issuance for that role.
func NewKeyring(adminKey, editorKey, readerKey string) (*Keyring, error) {
	kr := &Keyring{}
	for _, e := range []struct {
		key  string
		role model.Role
	}{
		{adminKey, model.RoleAdmin},
		{editorKey, model.RoleEditor},
		{readerKey, model.RoleReader},
	} {
		if e.key == "" {
			continue
		}
		d, err := digestKey(e.key)
		if err != nil {
			return nil, fmt.Errorf("auth: digest %s key: %w", e.role, err)
		}
		kr.entries = append(kr.entries, keyringEntry{digest: d, role: e.role})
	}
	return kr, nil
}

// Empty reports whether no API keys are configured.
func (k *Keyring) Empty() bool {
	return len(k.entries) == 0
}

// Resolve returns the role for an API key. Every configured digest is checked
// so that timing stays uniform; an empty keyring burns one digest instead.
func (k *Keyring) Resolve(apiKey string) (model.Role, bool) {
	var (
		matched bool
		role    model.Role
	)
	for _, e := range k.entries {
		if e.digest.matches(apiKey) && !matched {
			matched = true
			role = e.role
		}
	}
	if len(k.entries) == 0 {
		burnDigest()
	}
	return role, matched
}
