// mlkem.go wraps CIRCL's ML-KEM-768 (NIST FIPS 203, Category 3) for the
// hybrid KEM's lattice leg.
//
// Decapsulation preserves CIRCL's implicit rejection: a well-formed but
// invalid ciphertext yields a pseudorandom shared secret rather than an
// error, so nothing observable at this layer distinguishes a valid
// encapsulation from a forged one. The envelope's uniform open error relies
// on that property.
//
// The two key halves are separate types rather than a mandatory pair
// struct: the keystore persists a record's public key in the clear and its
// decapsulation key wrapped, so the halves live and travel independently.
package crypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/secure"
)

// MLKEMPublicKey is an ML-KEM-768 encapsulation key.
type MLKEMPublicKey struct {
	key *mlkem768.PublicKey
}

// MLKEMPrivateKey is an ML-KEM-768 decapsulation key.
type MLKEMPrivateKey struct {
	key *mlkem768.PrivateKey
}

// GenerateMLKEMKeyPair generates a fresh encapsulation/decapsulation key
// pair from the CSPRNG.
func GenerateMLKEMKeyPair() (*MLKEMPublicKey, *MLKEMPrivateKey, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(Reader)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("GenerateMLKEMKeyPair", err)
	}
	return &MLKEMPublicKey{key: pk}, &MLKEMPrivateKey{key: sk}, nil
}

// Encapsulate produces a ciphertext for the key's owner and the shared
// secret it encapsulates. The encapsulation seed is wiped as soon as the
// KEM has consumed it; only the ciphertext and the secret leave this
// function.
func (pk *MLKEMPublicKey) Encapsulate() (ciphertext, sharedSecret []byte, err error) {
	if pk == nil || pk.key == nil {
		return nil, nil, qerrors.ErrInvalidPublicKey
	}

	seed := make([]byte, mlkem768.EncapsulationSeedSize)
	if err := SecureRandom(seed); err != nil {
		return nil, nil, err
	}
	defer secure.Zero(seed)

	ciphertext = make([]byte, mlkem768.CiphertextSize)
	sharedSecret = make([]byte, mlkem768.SharedKeySize)
	pk.key.EncapsulateTo(ciphertext, sharedSecret, seed)

	return ciphertext, sharedSecret, nil
}

// Decapsulate recovers the shared secret from ciphertext. A wrong length is
// the only reportable failure; a well-formed but invalid ciphertext is
// implicitly rejected into a pseudorandom secret.
func (sk *MLKEMPrivateKey) Decapsulate(ciphertext []byte) ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, qerrors.ErrInvalidSecretKey
	}
	if len(ciphertext) != constants.MLKEMCiphertextSize {
		return nil, qerrors.ErrInvalidCiphertext
	}

	sharedSecret := make([]byte, mlkem768.SharedKeySize)
	sk.key.DecapsulateTo(sharedSecret, ciphertext)
	return sharedSecret, nil
}

// Bytes serializes the encapsulation key (1184 bytes).
func (pk *MLKEMPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// Bytes serializes the decapsulation key (2400 bytes).
func (sk *MLKEMPrivateKey) Bytes() []byte {
	if sk == nil || sk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PrivateKeySize)
	sk.key.Pack(buf)
	return buf
}

// ParseMLKEMPublicKey parses an encapsulation key from its 1184-byte
// serialized form.
func ParseMLKEMPublicKey(data []byte) (*MLKEMPublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}
	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLKEMPublicKey", err)
	}
	return &MLKEMPublicKey{key: pk}, nil
}

// ParseMLKEMSecretKey parses a decapsulation key from its 2400-byte
// serialized form.
func ParseMLKEMSecretKey(data []byte) (*MLKEMPrivateKey, error) {
	if len(data) != constants.MLKEMPrivateKeySize {
		return nil, qerrors.ErrInvalidSecretKey
	}
	sk := new(mlkem768.PrivateKey)
	if err := sk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("ParseMLKEMSecretKey", err)
	}
	return &MLKEMPrivateKey{key: sk}, nil
}
