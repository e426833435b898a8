package envelope_test

import (
	"bytes"
	"testing"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/pkg/envelope"
)

func TestRoundtrip(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if len(ct) < constants.MinBlobSize {
		t.Errorf("ciphertext length %d below minimum %d", len(ct), constants.MinBlobSize)
	}
	wantHeader := []byte{0x01, 0xA3, 0xB1, 0x00, 0x04, 0x60}
	if !bytes.Equal(ct[:6], wantHeader) {
		t.Errorf("header = %x, want %x", ct[:6], wantHeader)
	}

	pt, err := envelope.Open(kp, ct, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(pt, []byte("hello")) {
		t.Errorf("Open() = %q, want %q", pt, "hello")
	}
}

func TestWrongAADFails(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = envelope.Open(kp, ct, envelope.RawAAD([]byte("a-prime")), envelope.RawContext([]byte("c")))
	if !qerrors.Is(err, qerrors.ErrDecryptionFailed) {
		t.Errorf("Open with wrong AAD = %v, want ErrDecryptionFailed", err)
	}
}

func TestWrongContextFails(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = envelope.Open(kp, ct, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c-prime")))
	if !qerrors.Is(err, qerrors.ErrDecryptionFailed) {
		t.Errorf("Open with wrong context = %v, want ErrDecryptionFailed", err)
	}
}

func TestSingleBitMutationFails(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello world"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	positions := []int{0, 3, 10, constants.HeaderSize + 1, constants.HeaderSize + constants.HybridCiphertextSize + 1, len(ct) - 1}
	for _, pos := range positions {
		mutated := make([]byte, len(ct))
		copy(mutated, ct)
		mutated[pos] ^= 0x01

		_, err := envelope.Open(kp, mutated, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
		if !qerrors.Is(err, qerrors.ErrDecryptionFailed) {
			t.Errorf("Open with bit flipped at offset %d = %v, want ErrDecryptionFailed", pos, err)
		}
	}
}

func TestTruncationFails(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	truncated := ct[:constants.MinBlobSize-1]
	_, err = envelope.Open(kp, truncated, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if !qerrors.Is(err, qerrors.ErrDecryptionFailed) {
		t.Errorf("Open with truncated blob = %v, want ErrDecryptionFailed", err)
	}
}

func TestErrorMessagesAreIdentical(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, wrongAADErr := envelope.Open(kp, ct, envelope.RawAAD([]byte("a-prime")), envelope.RawContext([]byte("c")))

	tampered := make([]byte, len(ct))
	copy(tampered, ct)
	tampered[0] = 0x02
	_, headerErr := envelope.Open(kp, tampered, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))

	truncated := ct[:constants.MinBlobSize-1]
	_, truncErr := envelope.Open(kp, truncated, envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))

	if wrongAADErr.Error() != headerErr.Error() || headerErr.Error() != truncErr.Error() {
		t.Errorf("open errors are not byte-identical: %q, %q, %q", wrongAADErr, headerErr, truncErr)
	}
}

func TestInspectWithoutKeyMaterial(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), []byte("hello"), envelope.RawAAD([]byte("a")), envelope.RawContext([]byte("c")))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	info, err := envelope.Inspect(ct)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Version != constants.WireVersion || info.SuiteKEM != constants.SuiteKEM || info.SuiteAEAD != constants.SuiteAEAD {
		t.Errorf("Inspect returned unexpected suite bytes: %+v", info)
	}
	if info.KEMCTLen != constants.HybridCiphertextSize {
		t.Errorf("KEMCTLen = %d, want %d", info.KEMCTLen, constants.HybridCiphertextSize)
	}
	if info.TotalLength != len(ct) {
		t.Errorf("TotalLength = %d, want %d", info.TotalLength, len(ct))
	}
}

func TestInspectRejectsMalformedHeader(t *testing.T) {
	junk := make([]byte, constants.MinBlobSize)
	_, err := envelope.Inspect(junk)
	if err == nil {
		t.Error("expected error for malformed header")
	}
}

func TestKeySerializationRoundtrip(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	pk := kp.PublicKey()
	if len(pk.Bytes()) != constants.HybridPublicKeySize {
		t.Errorf("public key size = %d, want %d", len(pk.Bytes()), constants.HybridPublicKeySize)
	}
	if len(kp.Bytes()) != constants.HybridSecretKeySize {
		t.Errorf("secret key size = %d, want %d", len(kp.Bytes()), constants.HybridSecretKeySize)
	}
}

func TestTypedAADConstructors(t *testing.T) {
	storage := envelope.StorageAAD("bucket", "obj1", "v2")
	if string(storage) != "bucket|obj1|v2" {
		t.Errorf("StorageAAD = %q, want %q", storage, "bucket|obj1|v2")
	}

	db := envelope.DatabaseAAD("users", "42", "email")
	if string(db) != "users|42|email" {
		t.Errorf("DatabaseAAD = %q, want %q", db, "users|42|email")
	}

	backup := envelope.BackupAAD("nightly", "2026-07-31T00:00:00Z")
	if string(backup) != "nightly|2026-07-31T00:00:00Z" {
		t.Errorf("BackupAAD = %q", backup)
	}

	msg := envelope.MessageAAD("alice", "bob", "msg-1")
	if string(msg) != "alice|bob|msg-1" {
		t.Errorf("MessageAAD = %q", msg)
	}

	appCtx := envelope.ApplicationContext("citadel-demo", "production")
	if string(appCtx) != "citadel-demo|production" {
		t.Errorf("ApplicationContext = %q", appCtx)
	}
}

func TestPlaintextTooLarge(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	oversized := make([]byte, envelope.MaxPlaintextSize+1)
	_, err = envelope.Seal(kp.PublicKey(), oversized, envelope.RawAAD(nil), envelope.RawContext(nil))
	if !qerrors.Is(err, qerrors.ErrPlaintextTooLarge) {
		t.Errorf("Seal with oversized plaintext = %v, want ErrPlaintextTooLarge", err)
	}
}

func TestEmptyPlaintextRoundtrips(t *testing.T) {
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	ct, err := envelope.Seal(kp.PublicKey(), nil, envelope.RawAAD(nil), envelope.RawContext(nil))
	if err != nil {
		t.Fatalf("Seal with empty plaintext failed: %v", err)
	}
	if len(ct) != constants.MinBlobSize {
		t.Errorf("empty-plaintext ciphertext length = %d, want %d", len(ct), constants.MinBlobSize)
	}

	pt, err := envelope.Open(kp, ct, envelope.RawAAD(nil), envelope.RawContext(nil))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(pt) != 0 {
		t.Errorf("Open() = %v, want empty", pt)
	}
}
