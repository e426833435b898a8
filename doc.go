// Package citadel provides hybrid post-quantum authenticated encryption for
// long-lived data at rest.
//
// Citadel combines ML-KEM-768 (NIST FIPS 203) post-quantum cryptography with
// X25519 classical cryptography for defense-in-depth: a sealed blob stays
// confidential as long as either primitive remains unbroken. Every ciphertext
// binds caller-supplied associated data and a domain-separation context, and
// key use is governed by a lifecycle state machine whose crypto-periods
// contract automatically under measured threat.
//
// # Quick Start
//
// For standalone envelope encryption:
//
//	import "github.com/citadel-sec/citadel/pkg/envelope"
//
//	keyPair, _ := envelope.GenerateKeyPair()
//	aad := envelope.StorageAAD("bucket", "object-7", "v1")
//	ctx := envelope.ApplicationContext("billing", "production")
//
//	blob, _ := envelope.Seal(keyPair.PublicKey(), plaintext, aad, ctx)
//	recovered, err := envelope.Open(keyPair, blob, aad, ctx)
//
// Open fails with a single opaque error for every cause — wrong AAD, wrong
// context, tampered bytes, truncation — so callers cannot be used as a
// decryption oracle.
//
// For managed keys with lifecycle, policy, and audit:
//
//	import "github.com/citadel-sec/citadel/internal/keystore"
//
//	store, _ := keystore.Open(dataDir, rootPassphrase, nil, nil)
//	rec, _ := store.Generate(constants.KeyTypeDEK, kekID, "default")
//	_ = store.Activate(rec.ID)
//	blob, _ := store.Encrypt(rec.ID, plaintext, aad, ctx)
//
// # Package Structure
//
//   - pkg/envelope: Seal/Open facade, wire codec, KDF, AEAD, typed AAD/Context
//   - pkg/hybridkem: X25519 + ML-KEM-768 hybrid key encapsulation
//   - pkg/crypto: Low-level primitives (ML-KEM, X25519, RNG)
//   - pkg/secure: Zeroizing container for secret byte material
//   - internal/keystore: Root/Domain/KEK/DEK hierarchy, lifecycle, policy gate
//   - internal/threat: Adaptive threat scoring with hysteresis
//   - internal/audit: Hash-chained append-only audit log
//   - internal/telemetry: Structured logging, metrics, optional tracing
//   - internal/constants: Wire, cryptographic, and policy parameters
//   - internal/errors: Seal-side taxonomy and the opaque open-side error
//
// # Security Properties
//
// The hybrid envelope provides:
//
//   - Post-quantum security: ML-KEM-768 (NIST Category 3)
//   - Classical security: X25519 ECDH (128-bit security)
//   - Hybrid guarantee: Secure if EITHER algorithm is secure
//   - Key commitment: HKDF binds SHA3-256 of the KEM ciphertext into the key
//   - Domain separation: Distinct contexts derive distinct AES-256-GCM keys
//   - Uniform failure: One byte-identical error for every open failure
//   - Zeroization: Shared secrets and derived keys wiped on every exit path
//
// # Wire Format
//
// A sealed blob is self-describing: a six-byte header (version, KEM suite,
// AEAD suite, flags, KEM ciphertext length) followed by the 1120-byte hybrid
// KEM ciphertext, a 12-byte nonce, and the AEAD ciphertext+tag. The minimum
// valid blob is 1154 bytes.
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - RFC 7748: Elliptic Curves for Security
//   - RFC 5869: HMAC-based Extract-and-Expand Key Derivation Function (HKDF)
//   - NIST FIPS 202: SHA-3 Standard
package citadel
