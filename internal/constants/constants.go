// Package constants defines wire-format, cryptographic, and policy
// parameters for the Citadel hybrid post-quantum envelope system.
//
// Security Level: NIST Category 3 (ML-KEM-768) combined with X25519,
// targeting a practical, forward-looking security margin for data at rest.
package constants

import "time"

// Wire format version and suite identifiers.
const (
	// WireVersion is the envelope wire format version byte.
	WireVersion byte = 0x01

	// SuiteKEM identifies the hybrid KEM construction (X25519 + ML-KEM-768).
	SuiteKEM byte = 0xA3

	// SuiteAEAD identifies the AEAD construction (AES-256-GCM).
	SuiteAEAD byte = 0xB1

	// FlagsReserved is the current, always-zero flags byte.
	FlagsReserved byte = 0x00
)

// HeaderSize is the fixed size, in bytes, of the envelope header.
const HeaderSize = 6

// Header holds the exact six header bytes emitted by a conforming encoder,
// matching [version, suite_kem, suite_aead, flags, kem_ct_len_hi, kem_ct_len_lo].
var Header = [HeaderSize]byte{WireVersion, SuiteKEM, SuiteAEAD, FlagsReserved, 0x04, 0x60}

// ML-KEM-768 parameters (NIST FIPS 203, Category 3).
const (
	// MLKEMPublicKeySize is the size of the ML-KEM-768 encapsulation key in bytes.
	MLKEMPublicKeySize = 1184

	// MLKEMPrivateKeySize is the size of the ML-KEM-768 decapsulation key in bytes.
	MLKEMPrivateKeySize = 2400

	// MLKEMCiphertextSize is the size of the ML-KEM-768 ciphertext in bytes.
	MLKEMCiphertextSize = 1088

	// MLKEMSharedSecretSize is the size of the shared secret produced by ML-KEM in bytes.
	MLKEMSharedSecretSize = 32
)

// X25519 parameters (RFC 7748).
const (
	// X25519PublicKeySize is the size of an X25519 public key in bytes.
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of an X25519 private scalar in bytes.
	X25519PrivateKeySize = 32

	// X25519SharedSecretSize is the size of an X25519 shared secret in bytes.
	X25519SharedSecretSize = 32
)

// Hybrid KEM combined sizes.
const (
	// HybridPublicKeySize is the serialized size of a hybrid public key:
	// the classical public key followed by the lattice encapsulation key.
	HybridPublicKeySize = X25519PublicKeySize + MLKEMPublicKeySize // 1216

	// HybridSecretKeySize is the serialized size of a hybrid secret key:
	// the classical scalar followed by the lattice decapsulation key.
	HybridSecretKeySize = X25519PrivateKeySize + MLKEMPrivateKeySize // 2432

	// HybridCiphertextSize is the size of the combined KEM ciphertext embedded
	// in the envelope body: the classical ephemeral public key followed by
	// the lattice ciphertext.
	HybridCiphertextSize = X25519PublicKeySize + MLKEMCiphertextSize // 1120

	// HybridSharedSecretSize is the size of the combined (pre-KDF) shared
	// secret: the classical ECDH output concatenated with the lattice shared
	// secret.
	HybridSharedSecretSize = X25519SharedSecretSize + MLKEMSharedSecretSize // 64
)

// AES-256-GCM parameters.
const (
	// AESKeySize is the size of AES-256 keys in bytes.
	AESKeySize = 32

	// AESNonceSize is the size of the AES-GCM nonce in bytes (96 bits).
	AESNonceSize = 12

	// AESTagSize is the size of the AES-GCM authentication tag in bytes.
	AESTagSize = 16
)

// Key derivation parameters (HKDF-SHA256).
const (
	// KDFOutputSize is the number of bytes extracted from HKDF to form the AES key.
	KDFOutputSize = AESKeySize

	// KDFInfoPrefix opens the HKDF info string; it is followed by the
	// "|aes|" suite tag, the SHA3-256 digest of the KEM ciphertext, and the
	// caller-supplied context bytes.
	KDFInfoPrefix = "citadel-env-v1"

	// KDFInfoSuiteTagAES is appended after KDFInfoPrefix to bind the AEAD suite
	// into the derivation.
	KDFInfoSuiteTagAES = "|aes|"

	// KDFTranscriptDigestSize is the size of the SHA3-256 digest of the KEM
	// ciphertext embedded in the HKDF info string.
	KDFTranscriptDigestSize = 32
)

// Envelope body and blob size bounds.
const (
	// MinAEADCiphertextSize is the minimum size of an AEAD ciphertext+tag: an
	// empty plaintext still produces a 16-byte tag.
	MinAEADCiphertextSize = AESTagSize

	// MinBlobSize is the minimum total size of a valid envelope blob:
	// header + KEM ciphertext + nonce + minimum AEAD output.
	MinBlobSize = HeaderSize + HybridCiphertextSize + AESNonceSize + MinAEADCiphertextSize // 1154
)

// Key lifecycle states, in their normal forward-progression order.
type KeyState int

const (
	KeyStatePending KeyState = iota
	KeyStateActive
	KeyStateRotated
	KeyStateSuspended
	KeyStateRevoked
	KeyStateDestroyed
)

// String returns a human-readable name for the key lifecycle state.
func (s KeyState) String() string {
	switch s {
	case KeyStatePending:
		return "pending"
	case KeyStateActive:
		return "active"
	case KeyStateRotated:
		return "rotated"
	case KeyStateSuspended:
		return "suspended"
	case KeyStateRevoked:
		return "revoked"
	case KeyStateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// KeyType distinguishes the position of a key record in the key hierarchy.
type KeyType int

const (
	KeyTypeRoot KeyType = iota
	KeyTypeDomain
	KeyTypeKEK
	KeyTypeDEK
)

// String returns a human-readable name for the key type.
func (t KeyType) String() string {
	switch t {
	case KeyTypeRoot:
		return "root"
	case KeyTypeDomain:
		return "domain"
	case KeyTypeKEK:
		return "kek"
	case KeyTypeDEK:
		return "dek"
	default:
		return "unknown"
	}
}

// ThreatLevel is a discrete, ordered severity assigned by the threat engine.
type ThreatLevel int

const (
	ThreatLevelLow ThreatLevel = iota
	ThreatLevelGuarded
	ThreatLevelElevated
	ThreatLevelHigh
	ThreatLevelCritical
)

// String returns a human-readable name for the threat level.
func (l ThreatLevel) String() string {
	switch l {
	case ThreatLevelLow:
		return "low"
	case ThreatLevelGuarded:
		return "guarded"
	case ThreatLevelElevated:
		return "elevated"
	case ThreatLevelHigh:
		return "high"
	case ThreatLevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// PolicyScaling holds the multiplicative scaling factors applied to a key's
// base policy at a given threat level.
type PolicyScaling struct {
	AgeFactor      float64
	GraceFactor    float64
	LifetimeFactor float64
	UsageFactor    float64
}

// ThreatScalingTable maps each threat level to its policy scaling factors.
// Factors strictly decrease in severity across every dimension.
var ThreatScalingTable = map[ThreatLevel]PolicyScaling{
	ThreatLevelLow:      {AgeFactor: 1.00, GraceFactor: 1.00, LifetimeFactor: 1.00, UsageFactor: 1.00},
	ThreatLevelGuarded:  {AgeFactor: 0.75, GraceFactor: 0.80, LifetimeFactor: 0.80, UsageFactor: 0.80},
	ThreatLevelElevated: {AgeFactor: 0.50, GraceFactor: 0.50, LifetimeFactor: 0.60, UsageFactor: 0.60},
	ThreatLevelHigh:     {AgeFactor: 0.30, GraceFactor: 0.30, LifetimeFactor: 0.40, UsageFactor: 0.40},
	ThreatLevelCritical: {AgeFactor: 0.20, GraceFactor: 0.10, LifetimeFactor: 0.25, UsageFactor: 0.25},
}

// ThreatEscalationThreshold maps each threat level to the raw score at or
// above which the engine enters that level.
var ThreatEscalationThreshold = map[ThreatLevel]float64{
	ThreatLevelLow:      0,
	ThreatLevelGuarded:  5,
	ThreatLevelElevated: 15,
	ThreatLevelHigh:     30,
	ThreatLevelCritical: 50,
}

// Threat event severities, added to the score on ingestion.
const (
	SeverityDecryptionFailure  = 3.0
	SeverityAuthFailure        = 3.5
	SeverityRapidAccessPattern = 4.0
	SeverityAnomalousAccess    = 5.0
	SeverityKeyEnumeration     = 6.0
	SeverityExternalAdvisory   = 8.0
)

// ThreatDecayFactor is the multiplicative decay applied to the threat score
// per ThreatDecayTick of elapsed wall-clock time.
const ThreatDecayFactor = 0.97

// ThreatDecayTick is the wall-clock interval the decay factor is defined
// over. Decay is computed on read from elapsed time, not by a background
// timer, so intervals shorter or longer than one tick scale fractionally.
const ThreatDecayTick = 2 * time.Second

// Policy floors: no scaling may push an effective policy value below these.
const (
	// MinActiveAgeDays is the minimum effective active-age threshold, in days.
	MinActiveAgeDays = 1.0

	// MinGraceDays is the minimum effective grace period, in days.
	MinGraceDays = 0.5

	// MinLifetimeDays is the minimum effective maximum lifetime, in days.
	MinLifetimeDays = 30.0

	// MinUsageCount is the minimum effective usage ceiling.
	MinUsageCount = 10

	// MinUsageFraction is the minimum effective usage ceiling expressed as a
	// fraction of the base usage ceiling; the floor applied is
	// max(MinUsageFraction*base, MinUsageCount), clamped so that it never
	// exceeds the base ceiling itself.
	MinUsageFraction = 0.01
)

// HysteresisFactor is the fraction of a level's escalation threshold that
// the current score must fall below before the engine de-escalates out of
// that level.
const HysteresisFactor = 0.80
