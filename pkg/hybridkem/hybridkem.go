// Package hybridkem implements a hybrid post-quantum key encapsulation
// mechanism combining X25519 (classical elliptic curve Diffie-Hellman) and
// ML-KEM-768 (post-quantum lattice-based KEM).
//
// # Security Model
//
// The combined construction remains IND-CCA2 secure if EITHER X25519 OR
// ML-KEM-768 is secure. This hybrid approach provides:
//
//  1. Quantum resistance: ML-KEM-768 resists attacks from quantum computers.
//  2. Classical fallback: X25519 provides defense if ML-KEM is ever broken.
//
// # Construction
//
// Key generation:
//
//	(sk_x, pk_x) ← X25519.KeyGen()
//	(sk_m, pk_m) ← ML-KEM-768.KeyGen()
//	pk = pk_x ‖ pk_m   (1216 bytes)
//	sk = sk_x ‖ sk_m   (2432 bytes)
//
// Encapsulation:
//
//	(sk_eph, pk_eph) ← X25519.KeyGen()
//	ss_c ← X25519.DH(sk_eph, pk_x)
//	(ct_l, ss_l) ← ML-KEM-768.Encaps(pk_m)
//	kem_ct = pk_eph ‖ ct_l   (1120 bytes)
//	ss = ss_c ‖ ss_l         (64 bytes, caller runs this through a KDF)
//
// Decapsulation:
//
//	Parse kem_ct as (pk_eph, ct_l)
//	ss_c ← X25519.DH(sk_x, pk_eph)
//	ss_l ← ML-KEM-768.Decaps(sk_m, ct_l)
//	ss = ss_c ‖ ss_l
//
// This package deliberately stops at the combined shared secret: it does not
// derive a symmetric key or bind a transcript. That is the responsibility of
// the caller's key derivation step, which also binds the ciphertext into its
// info string.
package hybridkem

import (
	"crypto/ecdh"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/crypto"
	"github.com/citadel-sec/citadel/pkg/secure"
)

// KeyPair represents a hybrid key pair combining X25519 and ML-KEM-768.
type KeyPair struct {
	x25519Public  *ecdh.PublicKey
	x25519Private *ecdh.PrivateKey

	mlkemPublic  *crypto.MLKEMPublicKey
	mlkemPrivate *crypto.MLKEMPrivateKey
}

// PublicKey represents a hybrid public key used for encapsulation.
type PublicKey struct {
	x25519 *ecdh.PublicKey
	mlkem  *crypto.MLKEMPublicKey
}

// Ciphertext represents the combined KEM ciphertext.
type Ciphertext struct {
	x25519Ephemeral []byte
	mlkemCiphertext []byte
}

// GenerateKeyPair generates a new hybrid key pair using the system CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	x25519KP, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, qerrors.NewCryptoError("hybridkem.GenerateKeyPair", err)
	}

	mlkemPK, mlkemSK, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		return nil, qerrors.NewCryptoError("hybridkem.GenerateKeyPair", err)
	}

	return &KeyPair{
		x25519Public:  x25519KP.PublicKey,
		x25519Private: x25519KP.PrivateKey,
		mlkemPublic:   mlkemPK,
		mlkemPrivate:  mlkemSK,
	}, nil
}

// PublicKey returns the public component of the key pair.
func (kp *KeyPair) PublicKey() *PublicKey {
	return &PublicKey{
		x25519: kp.x25519Public,
		mlkem:  kp.mlkemPublic,
	}
}

// Encapsulate samples a fresh classical ephemeral key pair, performs X25519
// against the recipient's classical public key, runs lattice encapsulation
// against the recipient's lattice encapsulation key, and returns the
// combined ciphertext and the combined (pre-KDF) shared secret.
func Encapsulate(recipientPublic *PublicKey) (*Ciphertext, *secure.Bytes, error) {
	if recipientPublic == nil || recipientPublic.x25519 == nil || recipientPublic.mlkem == nil {
		return nil, nil, qerrors.ErrInvalidPublicKey
	}

	ephemeralPublic, classicalSecret, err := crypto.EphemeralExchange(recipientPublic.x25519)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("hybridkem.Encapsulate", err)
	}

	latticeCiphertext, latticeSecret, err := recipientPublic.mlkem.Encapsulate()
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("hybridkem.Encapsulate", err)
	}

	ct := &Ciphertext{
		x25519Ephemeral: ephemeralPublic,
		mlkemCiphertext: latticeCiphertext,
	}

	combined := make([]byte, 0, constants.HybridSharedSecretSize)
	combined = append(combined, classicalSecret...)
	combined = append(combined, latticeSecret...)

	secure.ZeroAll(classicalSecret, latticeSecret)

	return ct, secure.New(combined), nil
}

// Decapsulate recovers the combined shared secret from a ciphertext and the
// recipient's key pair. The returned secret is bit-for-bit identical to the
// one produced by the matching Encapsulate call.
func Decapsulate(ct *Ciphertext, kp *KeyPair) (*secure.Bytes, error) {
	if ct == nil || len(ct.x25519Ephemeral) == 0 || len(ct.mlkemCiphertext) == 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}
	if kp == nil || kp.x25519Private == nil || kp.mlkemPrivate == nil {
		return nil, qerrors.ErrInvalidSecretKey
	}

	ephemeralPublic, err := crypto.ParseX25519PublicKey(ct.x25519Ephemeral)
	if err != nil {
		return nil, qerrors.NewCryptoError("hybridkem.Decapsulate", err)
	}

	classicalSecret, err := crypto.X25519(kp.x25519Private, ephemeralPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("hybridkem.Decapsulate", err)
	}

	latticeSecret, err := kp.mlkemPrivate.Decapsulate(ct.mlkemCiphertext)
	if err != nil {
		return nil, qerrors.NewCryptoError("hybridkem.Decapsulate", err)
	}

	combined := make([]byte, 0, constants.HybridSharedSecretSize)
	combined = append(combined, classicalSecret...)
	combined = append(combined, latticeSecret...)

	secure.ZeroAll(classicalSecret, latticeSecret)

	return secure.New(combined), nil
}

// Bytes serializes the public key: classical public key (32 bytes) followed
// by the lattice encapsulation key (1184 bytes). Total: 1216 bytes.
func (pk *PublicKey) Bytes() []byte {
	result := make([]byte, constants.HybridPublicKeySize)
	copy(result[:constants.X25519PublicKeySize], pk.x25519.Bytes())
	copy(result[constants.X25519PublicKeySize:], pk.mlkem.Bytes())
	return result
}

// ParsePublicKey parses a hybrid public key from its 1216-byte serialized form.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if len(data) != constants.HybridPublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	x25519Public, err := crypto.ParseX25519PublicKey(data[:constants.X25519PublicKeySize])
	if err != nil {
		return nil, err
	}

	mlkemPublic, err := crypto.ParseMLKEMPublicKey(data[constants.X25519PublicKeySize:])
	if err != nil {
		return nil, err
	}

	return &PublicKey{x25519: x25519Public, mlkem: mlkemPublic}, nil
}

// Bytes serializes the secret key: classical scalar (32 bytes) followed by
// the lattice decapsulation key (2400 bytes). Total: 2432 bytes.
func (kp *KeyPair) Bytes() []byte {
	result := make([]byte, constants.HybridSecretKeySize)
	copy(result[:constants.X25519PrivateKeySize], kp.x25519Private.Bytes())
	copy(result[constants.X25519PrivateKeySize:], kp.mlkemPrivate.Bytes())
	return result
}

// ParseKeyPair parses a hybrid secret key from its 2432-byte serialized form.
// Unlike X25519, ML-KEM-768's decapsulation key does not let its
// encapsulation key be recomputed from the private components alone, so the
// returned pair's PublicKey method only reflects the X25519 half; callers
// that need the full hybrid public key back (anything that will call
// Encapsulate against it, e.g. wrapping a child key) must use
// ParseKeyPairWithPublicKey with the public key bytes recorded alongside the
// secret at generation time.
func ParseKeyPair(data []byte) (*KeyPair, error) {
	if len(data) != constants.HybridSecretKeySize {
		return nil, qerrors.ErrInvalidSecretKey
	}

	x25519KP, err := crypto.NewX25519KeyPairFromBytes(data[:constants.X25519PrivateKeySize])
	if err != nil {
		return nil, err
	}

	mlkemSK, err := crypto.ParseMLKEMSecretKey(data[constants.X25519PrivateKeySize:])
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		x25519Public:  x25519KP.PublicKey,
		x25519Private: x25519KP.PrivateKey,
		mlkemPublic:   nil,
		mlkemPrivate:  mlkemSK,
	}, nil
}

// ParseKeyPairWithPublicKey parses a hybrid secret key and attaches an
// independently-known public key to it, restoring full PublicKey()
// capability after a restart. The keystore persists a record's public key
// bytes separately from its wrapped secret precisely so this reassembly is
// possible: the public key never needs unwrapping, and the ML-KEM
// encapsulation key embedded in it cannot otherwise be recovered from the
// decapsulation key.
func ParseKeyPairWithPublicKey(secretData, publicData []byte) (*KeyPair, error) {
	kp, err := ParseKeyPair(secretData)
	if err != nil {
		return nil, err
	}

	pub, err := ParsePublicKey(publicData)
	if err != nil {
		return nil, err
	}

	kp.mlkemPublic = pub.mlkem
	return kp, nil
}

// Bytes serializes the ciphertext: classical ephemeral public key (32 bytes)
// followed by the lattice ciphertext (1088 bytes). Total: 1120 bytes.
func (ct *Ciphertext) Bytes() []byte {
	result := make([]byte, constants.HybridCiphertextSize)
	copy(result[:constants.X25519PublicKeySize], ct.x25519Ephemeral)
	copy(result[constants.X25519PublicKeySize:], ct.mlkemCiphertext)
	return result
}

// ParseCiphertext parses a hybrid ciphertext from its 1120-byte serialized form.
func ParseCiphertext(data []byte) (*Ciphertext, error) {
	if len(data) != constants.HybridCiphertextSize {
		return nil, qerrors.ErrInvalidCiphertext
	}

	return &Ciphertext{
		x25519Ephemeral: data[:constants.X25519PublicKeySize],
		mlkemCiphertext: data[constants.X25519PublicKeySize:],
	}, nil
}

// Zeroize drops the key pair's references to its classical and lattice key
// objects. The memory those objects occupy is not overwritten; they are
// left to the garbage collector.
func (kp *KeyPair) Zeroize() {
	kp.x25519Private = nil
	kp.x25519Public = nil
	kp.mlkemPrivate = nil
	kp.mlkemPublic = nil
}

// Clone creates a shallow copy of the public key.
func (pk *PublicKey) Clone() *PublicKey {
	return &PublicKey{x25519: pk.x25519, mlkem: pk.mlkem}
}

// X25519PublicKey returns the classical component of the public key.
func (pk *PublicKey) X25519PublicKey() *ecdh.PublicKey {
	return pk.x25519
}

// MLKEMPublicKey returns the lattice component of the public key.
func (pk *PublicKey) MLKEMPublicKey() *crypto.MLKEMPublicKey {
	return pk.mlkem
}
