// x25519.go wraps crypto/ecdh's X25519 for the hybrid KEM's classical leg.
//
// X25519 is not quantum-resistant; in the hybrid construction it provides
// defense-in-depth if ML-KEM is ever broken. The Citadel-specific pieces
// here are EphemeralExchange, which runs the whole sender side of the
// classical leg in one step so the ephemeral scalar never escapes the call,
// and the rejection of the all-zero public key encoding before it can reach
// an ECDH computation.
package crypto

import (
	"crypto/ecdh"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
)

// X25519KeyPair holds the classical half of a hybrid key pair.
type X25519KeyPair struct {
	PublicKey  *ecdh.PublicKey
	PrivateKey *ecdh.PrivateKey
}

// GenerateX25519KeyPair samples a fresh scalar from the CSPRNG.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("GenerateX25519KeyPair", err)
	}
	return &X25519KeyPair{PublicKey: priv.PublicKey(), PrivateKey: priv}, nil
}

// NewX25519KeyPairFromBytes rebuilds a key pair from a serialized 32-byte
// scalar. Deterministic: the same scalar always yields the same pair.
func NewX25519KeyPairFromBytes(privateKeyBytes []byte) (*X25519KeyPair, error) {
	if len(privateKeyBytes) != constants.X25519PrivateKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}
	priv, err := ecdh.X25519().NewPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, qerrors.NewCryptoError("NewX25519KeyPairFromBytes", err)
	}
	return &X25519KeyPair{PublicKey: priv.PublicKey(), PrivateKey: priv}, nil
}

// ParseX25519PublicKey parses a 32-byte public key. The all-zero encoding
// is rejected here: it can never be an honest party's key, and catching it
// at parse time keeps the zero point out of every downstream ECDH.
func ParseX25519PublicKey(data []byte) (*ecdh.PublicKey, error) {
	if len(data) != constants.X25519PublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}
	if isAllZero(data) {
		return nil, qerrors.ErrInvalidPublicKey
	}
	pub, err := ecdh.X25519().NewPublicKey(data)
	if err != nil {
		return nil, qerrors.NewCryptoError("ParseX25519PublicKey", err)
	}
	return pub, nil
}

func isAllZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}

// X25519 computes the shared secret between a local private key and a peer
// public key. crypto/ecdh rejects low-order peer points by refusing an
// all-zero shared secret; that failure passes through unchanged. The result
// must always go through a KDF before use as a key.
func X25519(privateKey *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, qerrors.ErrInvalidSecretKey
	}
	if peerPublic == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}
	sharedSecret, err := privateKey.ECDH(peerPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("X25519", err)
	}
	return sharedSecret, nil
}

// EphemeralExchange runs the sender side of the classical leg in one step:
// sample an ephemeral scalar, compute the shared secret against the
// recipient's static public key, and return the ephemeral public key for
// the wire together with the secret. The ephemeral scalar itself never
// leaves this function.
func EphemeralExchange(recipientPublic *ecdh.PublicKey) (ephemeralPublic, sharedSecret []byte, err error) {
	ephemeral, err := GenerateX25519KeyPair()
	if err != nil {
		return nil, nil, err
	}
	sharedSecret, err = X25519(ephemeral.PrivateKey, recipientPublic)
	if err != nil {
		return nil, nil, err
	}
	return ephemeral.PublicKey.Bytes(), sharedSecret, nil
}
