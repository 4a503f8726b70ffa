package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
)

// Sentinel errors for digest failures.
var (
	// ErrEmptyInput indicates zero-length canonical bytes. Hashing nothing
	// would mint an identifier carrying no record content, so it is always
	// a caller bug.
	ErrEmptyInput = errors.New("empty canonical input")

	// ErrUnknownAlgorithm indicates an algorithm version this build does
	// not provide.
	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")
)

// Algorithm version identifiers. The version string travels with every
// assignment, so identifiers minted by different engine versions stay
// auditable and comparable.
const (
	// SHA256V1 is SHA-256 with lowercase hex output, 64 characters.
	SHA256V1 = "sha256-v1"

	// SHA512V1 is SHA-512 with lowercase hex output, 128 characters.
	SHA512V1 = "sha512-v1"

	// Default is the algorithm used when a policy names none.
	Default = SHA256V1
)

// Func maps canonical bytes to an identifier string.
type Func func([]byte) string

// algorithms is fixed at build time. There is deliberately no runtime
// registration: a process-global mutable registry would let two concurrent
// callers change each other's identifier semantics.
var algorithms = map[string]Func{
	SHA256V1: func(b []byte) string {
		sum := sha256.Sum256(b)
		return hex.EncodeToString(sum[:])
	},
	SHA512V1: func(b []byte) string {
		sum := sha512.Sum512(b)
		return hex.EncodeToString(sum[:])
	},
}

// Engine applies one fixed, versioned hash algorithm to canonical bytes.
// Engines hold no mutable state and are safe for concurrent use.
type Engine struct {
	version string
	fn      Func
}

// New returns an Engine for the named algorithm version. An empty version
// selects Default.
func New(version string) (*Engine, error) {
	if version == "" {
		version = Default
	}
	fn, ok := algorithms[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, version)
	}
	return &Engine{version: version, fn: fn}, nil
}

// Version returns the algorithm version identifier this engine applies.
func (e *Engine) Version() string {
	return e.version
}

// Sum hashes canonical bytes into an identifier string. Identical input
// always yields an identical identifier; zero-length input fails with
// ErrEmptyInput.
func (e *Engine) Sum(canonical []byte) (string, error) {
	if len(canonical) == 0 {
		return "", ErrEmptyInput
	}
	return e.fn(canonical), nil
}
