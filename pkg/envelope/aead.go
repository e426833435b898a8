// aead.go implements the AES-256-GCM seal/open step used by the envelope
// facade.
//
// Unlike a tunnel cipher that encrypts an ordered stream under one
// long-lived key, Citadel seals a single message at rest against an
// unordered store: there is no sequence to derive a nonce from, so each
// call samples a fresh 12-byte nonce from the system CSPRNG and carries it
// alongside the ciphertext on the wire. Nonce collision probability at
// random-96-bit sampling is negligible well below the number of seals any
// single derived key will ever see.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"

	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/crypto"
)

// sealAES encrypts plaintext under key with a fresh random nonce, returning
// the nonce and the ciphertext+tag separately so the caller can place them
// into the wire body.
func sealAES(key, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("sealAES", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("sealAES", err)
	}

	nonce, err = crypto.NewNonce()
	if err != nil {
		return nil, nil, err
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, aad)
	return nonce, ciphertext, nil
}

// openAES verifies and decrypts ciphertext under key, nonce, and aad. Any
// failure — bad key size, tag mismatch, AAD mismatch — returns
// ErrDecryptionFailed directly; this function is only ever called from the
// open path, so there is no seal-side error to preserve here.
func openAES(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, qerrors.ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	return plaintext, nil
}
