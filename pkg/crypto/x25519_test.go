package crypto_test

import (
	"bytes"
	"testing"

	"github.com/citadel-sec/citadel/internal/constants"
	"github.com/citadel-sec/citadel/pkg/crypto"
)

func TestEphemeralExchangeAgreesWithRecipient(t *testing.T) {
	recipient, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair() error = %v", err)
	}

	ephemeralPublic, senderSecret, err := crypto.EphemeralExchange(recipient.PublicKey)
	if err != nil {
		t.Fatalf("EphemeralExchange() error = %v", err)
	}
	if len(ephemeralPublic) != constants.X25519PublicKeySize {
		t.Fatalf("ephemeral public key length = %d, want %d", len(ephemeralPublic), constants.X25519PublicKeySize)
	}
	if len(senderSecret) != constants.X25519SharedSecretSize {
		t.Fatalf("shared secret length = %d, want %d", len(senderSecret), constants.X25519SharedSecretSize)
	}

	// The recipient reproduces the secret from the wire-format ephemeral key.
	parsed, err := crypto.ParseX25519PublicKey(ephemeralPublic)
	if err != nil {
		t.Fatalf("ParseX25519PublicKey() error = %v", err)
	}
	recipientSecret, err := crypto.X25519(recipient.PrivateKey, parsed)
	if err != nil {
		t.Fatalf("X25519() error = %v", err)
	}
	if !bytes.Equal(senderSecret, recipientSecret) {
		t.Error("sender and recipient derived different shared secrets")
	}
}

func TestEphemeralExchangeIsFreshPerCall(t *testing.T) {
	recipient, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair() error = %v", err)
	}

	pub1, ss1, err := crypto.EphemeralExchange(recipient.PublicKey)
	if err != nil {
		t.Fatalf("first EphemeralExchange() error = %v", err)
	}
	pub2, ss2, err := crypto.EphemeralExchange(recipient.PublicKey)
	if err != nil {
		t.Fatalf("second EphemeralExchange() error = %v", err)
	}

	if bytes.Equal(pub1, pub2) {
		t.Error("two exchanges reused an ephemeral key")
	}
	if bytes.Equal(ss1, ss2) {
		t.Error("two exchanges derived the same secret")
	}
}

func TestParseX25519PublicKeyRejectsAllZero(t *testing.T) {
	if _, err := crypto.ParseX25519PublicKey(make([]byte, constants.X25519PublicKeySize)); err == nil {
		t.Error("all-zero public key should be rejected at parse time")
	}
}

func TestParseX25519PublicKeyRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 31, 33} {
		if _, err := crypto.ParseX25519PublicKey(make([]byte, n)); err == nil {
			t.Errorf("public key of length %d should be rejected", n)
		}
	}
}

func TestNewX25519KeyPairFromBytesIsDeterministic(t *testing.T) {
	scalar, err := crypto.SecureRandomBytes(constants.X25519PrivateKeySize)
	if err != nil {
		t.Fatalf("SecureRandomBytes() error = %v", err)
	}

	kp1, err := crypto.NewX25519KeyPairFromBytes(scalar)
	if err != nil {
		t.Fatalf("NewX25519KeyPairFromBytes() error = %v", err)
	}
	kp2, err := crypto.NewX25519KeyPairFromBytes(scalar)
	if err != nil {
		t.Fatalf("NewX25519KeyPairFromBytes() error = %v", err)
	}

	if !bytes.Equal(kp1.PublicKey.Bytes(), kp2.PublicKey.Bytes()) {
		t.Error("same scalar produced different public keys")
	}

	if _, err := crypto.NewX25519KeyPairFromBytes([]byte("short")); err == nil {
		t.Error("short scalar should be rejected")
	}
}

func TestX25519NilArguments(t *testing.T) {
	kp, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair() error = %v", err)
	}

	if _, err := crypto.X25519(nil, kp.PublicKey); err == nil {
		t.Error("nil private key should be rejected")
	}
	if _, err := crypto.X25519(kp.PrivateKey, nil); err == nil {
		t.Error("nil peer public key should be rejected")
	}
}
