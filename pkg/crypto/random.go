// Package crypto provides the low-level primitives backing the Citadel
// hybrid envelope: the shared CSPRNG entry point, X25519 for the classical
// KEM leg, and ML-KEM-768 for the lattice leg.
//
// Everything that needs randomness — keypair generation, ephemeral scalars,
// encapsulation seeds, AEAD nonces — draws from the one Reader in this file.
// A randomness failure is always surfaced as an error in the seal path's
// encoding-error class; nothing here panics, because the envelope's contract
// is that the caller decides how to handle a dead entropy source.
package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
)

// Reader is the CSPRNG shared by every key-generation and nonce path.
var Reader = rand.Reader

// SecureRandom fills b from the system CSPRNG. A short or failed read
// reports ErrRandomSourceFailed, so the seal path can surface the failure in
// its own error taxonomy without rewrapping.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(Reader, b); err != nil {
		return fmt.Errorf("%w: %v", qerrors.ErrRandomSourceFailed, err)
	}
	return nil
}

// SecureRandomBytes returns n bytes from the CSPRNG.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewNonce returns a fresh AES-GCM nonce. Citadel seals independent records
// against unordered storage, so every nonce is sampled fresh rather than
// counted from per-session state.
func NewNonce() ([]byte, error) {
	return SecureRandomBytes(constants.AESNonceSize)
}

// ConstantTimeCompare reports whether a and b are equal without leaking the
// position of a mismatch through timing. Slices of different lengths compare
// unequal.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

const entropyProbeSize = 32

// ProbeEntropy is the startup liveness check on the CSPRNG: two independent
// samples must be non-zero and distinct. It is a cheap plausibility gate
// against a stubbed or exhausted entropy source, not a statistical test.
// The keystore refuses to open when the probe fails.
func ProbeEntropy() error {
	a, err := SecureRandomBytes(entropyProbeSize)
	if err != nil {
		return qerrors.ErrRNGUnhealthy
	}
	b, err := SecureRandomBytes(entropyProbeSize)
	if err != nil {
		return qerrors.ErrRNGUnhealthy
	}

	zero := make([]byte, entropyProbeSize)
	if bytes.Equal(a, zero) || bytes.Equal(b, zero) || bytes.Equal(a, b) {
		return qerrors.ErrRNGUnhealthy
	}
	return nil
}
