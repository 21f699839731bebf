package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters for API key digests. The keyring digests at most
// three keys, once, at startup, so the memory cost is paid only on boot and
// on failed resolves.
const (
	digestPasses  = 1
	digestMemory  = 64 * 1024 // KiB
	digestThreads = 4
	digestLen     = 32
	digestSaltLen = 16
)

// keyDigest is the Argon2id digest of one configured API key. Digests live
// only in process memory for the lifetime of the keyring, so there is no
// encoded string form; the salt and sum are held as raw bytes.
type keyDigest struct {
	salt []byte
	sum  []byte
}

// digestKey derives a fresh-salted digest of key.
func digestKey(key string) (keyDigest, error) {
	salt := make([]byte, digestSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return keyDigest{}, fmt.Errorf("auth: generate salt: %w", err)
	}
	return keyDigest{
		salt: salt,
		sum:  argon2.IDKey([]byte(key), salt, digestPasses, digestMemory, digestThreads, digestLen),
	}, nil
}

// matches reports whether key digests to the same sum. The comparison is
// constant time; the digest computation dominates the cost either way.
func (d keyDigest) matches(key string) bool {
	sum := argon2.IDKey([]byte(key), d.salt, digestPasses, digestMemory, digestThreads, digestLen)
	return subtle.ConstantTimeCompare(d.sum, sum) == 1
}

// burnDigest computes a throwaway digest with the real cost parameters.
// Resolve calls it when no keys are configured, so a caller probing the
// endpoint cannot tell an empty keyring from a wrong key by timing.
func burnDigest() {
	argon2.IDKey([]byte("keifu"), make([]byte, digestSaltLen), digestPasses, digestMemory, digestThreads, digestLen)
}
