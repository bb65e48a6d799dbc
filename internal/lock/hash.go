package lock

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hash scheme names as they appear in config and in stored hashes.
const (
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"
)

// Argon2id parameters for new hashes.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// Hasher turns a credential candidate into a self-describing stored hash.
type Hasher interface {
	Scheme() string
	Hash(candidate []byte) ([]byte, error)
}

// NewHasher returns the hasher for a scheme name.
func NewHasher(scheme string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeSHA256:
		return SHA256Hasher{}, nil
	case SchemeArgon2id:
		return &Argon2idHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashScheme, scheme)
	}
}

// SHA256Hasher produces "sha256$<hex>", an unsalted digest of the raw PIN.
// A short numeric PIN hashed this way can be brute forced offline if the
// stored hash leaks; Argon2idHasher is the hardened alternative.
type SHA256Hasher struct{}

// Scheme returns the scheme name.
func (SHA256Hasher) Scheme() string { return SchemeSHA256 }

// Hash returns the stored form of candidate.
func (SHA256Hasher) Hash(candidate []byte) ([]byte, error) {
	return []byte(SchemeSHA256 + "$" + sha256Hex(candidate)), nil
}

func sha256Hex(candidate []byte) string {
	sum := sha256.Sum256(candidate)
	return hex.EncodeToString(sum[:])
}

// Argon2idHasher produces
// "argon2id$v=19$m=<KiB>,t=<iters>,p=<threads>$<salt>$<key>" with a fresh
// random salt per hash. Salt and key are unpadded base64.
type Argon2idHasher struct {
	// Rand supplies salt bytes; crypto/rand when nil.
	Rand io.Reader
}

// Scheme returns the scheme name.
func (*Argon2idHasher) Scheme() string { return SchemeArgon2id }

// Hash returns the stored form of candidate.
func (h *Argon2idHasher) Hash(candidate []byte) ([]byte, error) {
	r := h.Rand
	if r == nil {
		r = rand.Reader
	}
	salt := make([]byte, argonSaltLen)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	key := argon2.IDKey(candidate, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	enc := base64.RawStdEncoding
	return []byte(fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		SchemeArgon2id, argon2.Version, argonMemory, argonTime, argonThreads,
		enc.EncodeToString(salt), enc.EncodeToString(key))), nil
}

// SchemeOf reports which scheme produced a stored hash, or "" if unknown.
func SchemeOf(stored []byte) string {
	switch {
	case bytes.HasPrefix(stored, []byte(SchemeSHA256+"$")):
		return SchemeSHA256
	case bytes.HasPrefix(stored, []byte(SchemeArgon2id+"$")):
		return SchemeArgon2id
	case isLegacyDigest(stored):
		return SchemeSHA256
	default:
		return ""
	}
}

// VerifyHash checks candidate against a stored hash of any supported
// scheme. Comparison is constant time. Unknown or malformed hashes never
// verify.
func VerifyHash(stored, candidate []byte) bool {
	if len(stored) == 0 {
		return false
	}
	switch {
	case bytes.HasPrefix(stored, []byte(SchemeSHA256+"$")):
		want := stored[len(SchemeSHA256)+1:]
		return subtle.ConstantTimeCompare(want, []byte(sha256Hex(candidate))) == 1
	case bytes.HasPrefix(stored, []byte(SchemeArgon2id+"$")):
		return verifyArgon2id(string(stored), candidate)
	case isLegacyDigest(stored):
		return subtle.ConstantTimeCompare(bytes.ToLower(stored), []byte(sha256Hex(candidate))) == 1
	default:
		return false
	}
}

// isLegacyDigest matches a bare lowercase or uppercase hex SHA-256 digest.
func isLegacyDigest(stored []byte) bool {
	if len(stored) != hex.EncodedLen(sha256.Size) {
		return false
	}
	_, err := hex.DecodeString(string(stored))
	return err == nil
}

func verifyArgon2id(stored string, candidate []byte) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 5 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || threads == 0 {
		return false
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[3])
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}

	//nolint:gosec // G115: key length comes from a hash this package wrote
	got := argon2.IDKey(candidate, salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
