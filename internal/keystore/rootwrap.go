// rootwrap.go protects a Root key record's secret material with a
// passphrase-derived key, since a Root record has no parent key to seal it
// under. PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM encryption.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/citadel-sec/citadel/pkg/crypto"
	"github.com/citadel-sec/citadel/pkg/secure"
)

const (
	rootWrapSaltSize    = 32
	rootWrapNonceSize   = 12
	rootWrapIterations  = 200_000
	rootWrapKeySize     = 32
	minPassphraseLength = 12
)

// RootWrapping holds the salt, iteration count, nonce, and ciphertext
// produced by wrapping a Root record's secret key under a passphrase.
type RootWrapping struct {
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// validatePassphrase rejects obviously weak passphrases before they are
// used to protect a Root key.
func validatePassphrase(passphrase string) error {
	if len(passphrase) < minPassphraseLength {
		return fmt.Errorf("keystore: passphrase must be at least %d characters", minPassphraseLength)
	}
	return nil
}

// wrapRootSecret encrypts secretKeyBytes under a key derived from
// passphrase via PBKDF2-HMAC-SHA256.
func wrapRootSecret(secretKeyBytes []byte, passphrase string) (*RootWrapping, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}

	salt, err := crypto.SecureRandomBytes(rootWrapSaltSize)
	if err != nil {
		return nil, fmt.Errorf("keystore: generate root wrap salt: %w", err)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, rootWrapIterations, rootWrapKeySize, sha256.New)
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: root wrap cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: root wrap gcm: %w", err)
	}

	nonce, err := crypto.SecureRandomBytes(rootWrapNonceSize)
	if err != nil {
		return nil, fmt.Errorf("keystore: generate root wrap nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, secretKeyBytes, nil)

	return &RootWrapping{
		Iterations: rootWrapIterations,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// unwrapRootSecret reverses wrapRootSecret. A wrong passphrase and a
// corrupted ciphertext are indistinguishable: both fail GCM tag
// verification.
func unwrapRootSecret(w *RootWrapping, passphrase string) ([]byte, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), w.Salt, w.Iterations, rootWrapKeySize, sha256.New)
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: root unwrap cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: root unwrap gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, w.Nonce, w.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: root key unwrap failed: wrong passphrase or corrupted data")
	}
	return plaintext, nil
}
