// Package envelope implements the hybrid post-quantum authenticated
// encryption facade: Seal and Open compose the hybrid KEM, the HKDF-SHA256
// key derivation, the AES-256-GCM AEAD, and the wire codec into a single
// self-describing ciphertext blob.
//
// Seal-path errors are diagnosable. Every Open-path failure — a malformed
// header, a decapsulation anomaly, a tag mismatch, an AAD or context
// mismatch — collapses to the single ErrDecryptionFailed value so that no
// caller can distinguish why a ciphertext was rejected.
package envelope

import (
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/hybridkem"
)

// MaxPlaintextSize bounds the plaintext a single Seal call will encode.
// Citadel seals discrete records, not unbounded streams; this ceiling keeps
// a single blob's allocation bounded.
const MaxPlaintextSize = 64 << 20 // 64 MiB

// Seal encrypts plaintext under the recipient's hybrid public key, binding
// aad into the AEAD tag and context into the derived key. The returned blob
// is self-describing: it carries the KEM ciphertext, nonce, and AEAD
// ciphertext needed to reverse the operation given the matching secret key.
func Seal(pk *hybridkem.PublicKey, plaintext []byte, aad AAD, context Context) ([]byte, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, qerrors.ErrPlaintextTooLarge
	}

	kemCiphertext, combinedSecret, err := hybridkem.Encapsulate(pk)
	if err != nil {
		return nil, err
	}
	defer combinedSecret.Destroy()

	kemCTBytes := kemCiphertext.Bytes()

	aesKey, err := deriveAESKey(combinedSecret.Bytes(), kemCTBytes, context)
	if err != nil {
		return nil, err
	}
	defer aesKey.Destroy()

	nonce, aeadCiphertext, err := sealAES(aesKey.Bytes(), plaintext, aad)
	if err != nil {
		return nil, err
	}

	return EncodeBlob(kemCTBytes, nonce, aeadCiphertext), nil
}

// Open decrypts a blob produced by Seal, recovering the plaintext only if
// sk, aad, and context all match the values used to produce it. Every
// failure mode returns the identical ErrDecryptionFailed value.
func Open(sk *hybridkem.KeyPair, blob []byte, aad AAD, context Context) ([]byte, error) {
	decoded, err := DecodeBlob(blob)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	kemCiphertext, err := hybridkem.ParseCiphertext(decoded.KEMCiphertext)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	combinedSecret, err := hybridkem.Decapsulate(kemCiphertext, sk)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}
	defer combinedSecret.Destroy()

	aesKey, err := deriveAESKey(combinedSecret.Bytes(), decoded.KEMCiphertext, context)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}
	defer aesKey.Destroy()

	plaintext, err := openAES(aesKey.Bytes(), decoded.Nonce, decoded.AEADCiphertext, aad)
	if err != nil {
		return nil, qerrors.ErrDecryptionFailed
	}

	return plaintext, nil
}

// Inspect parses a blob's header and length fields without performing KEM
// decapsulation or AEAD processing. It never requires key material and
// never leaks anything secret-dependent.
func Inspect(blob []byte) (*Inspection, error) {
	return InspectBlob(blob)
}

// GenerateKeyPair generates a new hybrid key pair suitable for Seal/Open.
func GenerateKeyPair() (*hybridkem.KeyPair, error) {
	return hybridkem.GenerateKeyPair()
}
