// Package errors defines the error taxonomy for the Citadel envelope and
// keystore. Errors on the seal (encrypt) path are distinguishable for
// debugging; errors on the open (decrypt) path collapse to a single opaque
// value so that no field, discriminant, or timing behavior leaks why a
// ciphertext was rejected.
package errors

import (
	"errors"
	"fmt"
)

// ErrDecryptionFailed is the sole error value ever returned by the open
// path. Every internal failure — header rejection, KEM decapsulation
// failure, AEAD tag mismatch, AAD mismatch, context mismatch, stale-key
// lookup — is converted to this value before it reaches the caller.
var ErrDecryptionFailed = errors.New("decryption failed")

// Sentinel errors for the seal (encrypt) path. These are never returned by
// Open; they may be converted into ErrDecryptionFailed internally, but the
// reverse conversion must never happen.
var (
	// ErrInvalidKeySize indicates a key has an incorrect size.
	ErrInvalidKeySize = errors.New("hybridkem: invalid key size")

	// ErrInvalidCiphertext indicates a KEM ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("hybridkem: invalid ciphertext")

	// ErrKeyGenerationFailed indicates hybrid key pair generation failed.
	ErrKeyGenerationFailed = errors.New("hybridkem: key generation failed")

	// ErrEncapsulationFailed indicates KEM encapsulation failed.
	ErrEncapsulationFailed = errors.New("hybridkem: encapsulation failed")

	// ErrInvalidPublicKey indicates a public key is invalid or malformed.
	ErrInvalidPublicKey = errors.New("hybridkem: invalid public key")

	// ErrInvalidSecretKey indicates a secret key is invalid or malformed.
	ErrInvalidSecretKey = errors.New("hybridkem: invalid secret key")

	// ErrPlaintextTooLarge indicates a plaintext exceeds the maximum size the
	// envelope codec will encode.
	ErrPlaintextTooLarge = errors.New("envelope: plaintext too large")

	// ErrRandomSourceFailed indicates the system RNG failed to produce
	// entropy for a nonce or ephemeral key.
	ErrRandomSourceFailed = errors.New("envelope: random source failed")
)

// Wire-codec errors. These are internal to decoding; a conforming Open
// implementation converts every one of them to ErrDecryptionFailed before
// it becomes visible to a caller. A separate Inspect function is allowed to
// surface ErrMalformedHeader directly, since inspection never touches key
// material.
var (
	// ErrMalformedHeader indicates the six-byte envelope header failed
	// strict validation.
	ErrMalformedHeader = errors.New("envelope: malformed header")

	// ErrBlobTooShort indicates a ciphertext blob is shorter than the
	// minimum valid length.
	ErrBlobTooShort = errors.New("envelope: blob too short")
)

// Keystore and lifecycle errors. These describe failures at the keystore
// boundary and are distinct from the envelope's opaque decryption error:
// a caller needs to know the difference between "no such key" and "policy
// denied this operation" to act correctly, so these remain discriminable.
var (
	// ErrKeyNotFound indicates no key record exists for the given identifier.
	ErrKeyNotFound = errors.New("keystore: key not found")

	// ErrInvalidStateTransition indicates the requested lifecycle transition
	// is not permitted from the record's current state.
	ErrInvalidStateTransition = errors.New("keystore: invalid state transition")

	// ErrPolicyDenied indicates an operation was refused by the active
	// policy (age, grace period, lifetime, or usage ceiling exceeded).
	ErrPolicyDenied = errors.New("keystore: operation denied by policy")

	// ErrKeyDestroyed indicates an operation was attempted against a key
	// whose material has already been discarded.
	ErrKeyDestroyed = errors.New("keystore: key material destroyed")

	// ErrParentKeyUnavailable indicates a DEK or KEK's parent key could not
	// be located or is not in a usable state.
	ErrParentKeyUnavailable = errors.New("keystore: parent key unavailable")

	// ErrAuditChainBroken indicates the audit log's hash chain failed
	// verification at startup. Keystore load proceeds regardless: Open logs
	// the break as a warning and counts it, and does not return an error
	// to the caller for it.
	ErrAuditChainBroken = errors.New("audit: hash chain verification failed")

	// ErrRNGUnhealthy indicates the startup RNG liveness probe did not
	// observe sufficient output entropy.
	ErrRNGUnhealthy = errors.New("keystore: random number generator failed liveness check")
)

// CryptoError wraps a seal-path cryptographic error with the operation that
// produced it.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// KeystoreError wraps a keystore boundary error with the record identifier
// it applies to.
type KeystoreError struct {
	KeyID string
	Err   error
}

func (e *KeystoreError) Error() string {
	return fmt.Sprintf("keystore[%s]: %v", e.KeyID, e.Err)
}

func (e *KeystoreError) Unwrap() error {
	return e.Err
}

// NewKeystoreError creates a new KeystoreError.
func NewKeystoreError(keyID string, err error) *KeystoreError {
	return &KeystoreError{KeyID: keyID, Err: err}
}

// Opaque converts any error into the single open-path error value. This
// conversion is intentionally one-directional: nothing in this package
// converts ErrDecryptionFailed back into a more specific error.
func Opaque(error) error {
	return ErrDecryptionFailed
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
