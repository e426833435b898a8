// kdf.go derives the AES-256 key from the hybrid KEM's combined shared
// secret using HKDF-SHA256 (RFC 5869).
//
// The info string binds three things into the derived key: a fixed protocol
// string that prevents cross-protocol reuse, a SHA3-256 digest of the wire
// KEM ciphertext that commits the key to the exact encapsulation that
// produced it, and the caller's context that forces domain separation
// between unrelated application uses of the same hybrid key pair.
//
//	info = "citadel-env-v1" || "|aes|" || SHA3-256(kem_ct) || context
//	key  = HKDF-Extract-and-Expand(salt=nil, IKM=combined_secret, info, L=32)
package envelope

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/secure"
)

// deriveAESKey runs HKDF-SHA256 over the combined hybrid secret, binding the
// KEM ciphertext and caller context into the info string. The returned key
// is held in a zeroizing container; callers must Destroy it once the AEAD
// step completes.
func deriveAESKey(combinedSecret, kemCiphertext, context []byte) (*secure.Bytes, error) {
	digest := sha3.Sum256(kemCiphertext)

	info := make([]byte, 0, len(constants.KDFInfoPrefix)+len(constants.KDFInfoSuiteTagAES)+len(digest)+len(context))
	info = append(info, []byte(constants.KDFInfoPrefix)...)
	info = append(info, []byte(constants.KDFInfoSuiteTagAES)...)
	info = append(info, digest[:]...)
	info = append(info, context...)

	reader := hkdf.New(sha256.New, combinedSecret, nil, info)

	key := make([]byte, constants.KDFOutputSize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, qerrors.NewCryptoError("deriveAESKey", err)
	}

	return secure.New(key), nil
}
