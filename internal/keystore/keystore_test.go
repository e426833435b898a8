package keystore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/citadel-sec/citadel/internal/audit"
	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/internal/telemetry"
	"github.com/citadel-sec/citadel/internal/threat"
	"github.com/citadel-sec/citadel/pkg/envelope"
)

const testPassphrase = "correct horse battery staple"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// generateChain builds Root -> Domain -> KEK -> DEK, activating each one,
// and registers a policy with no lifetime or usage ceiling so Encrypt is
// only gated by rotation age in tests that don't care about those floors.
func generateChain(t *testing.T, s *Store, policyID string) (root, domain, kek, dek *KeyRecord) {
	t.Helper()

	if err := s.SetPolicy(Policy{ID: policyID, BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	var err error
	root, err = s.Generate(constants.KeyTypeRoot, "", policyID)
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	if err := s.Activate(root.ID); err != nil {
		t.Fatalf("activate root: %v", err)
	}

	domain, err = s.Generate(constants.KeyTypeDomain, root.ID, policyID)
	if err != nil {
		t.Fatalf("generate domain: %v", err)
	}
	if err := s.Activate(domain.ID); err != nil {
		t.Fatalf("activate domain: %v", err)
	}

	kek, err = s.Generate(constants.KeyTypeKEK, domain.ID, policyID)
	if err != nil {
		t.Fatalf("generate kek: %v", err)
	}
	if err := s.Activate(kek.ID); err != nil {
		t.Fatalf("activate kek: %v", err)
	}

	dek, err = s.Generate(constants.KeyTypeDEK, kek.ID, policyID)
	if err != nil {
		t.Fatalf("generate dek: %v", err)
	}
	if err := s.Activate(dek.ID); err != nil {
		t.Fatalf("activate dek: %v", err)
	}

	return root, domain, kek, dek
}

func TestGenerateRejectsWrongParentType(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetPolicy(Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s.Generate(constants.KeyTypeRoot, "", "default")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}

	// A KEK's parent must be a Domain, not a Root.
	if _, err := s.Generate(constants.KeyTypeKEK, root.ID, "default"); err == nil {
		t.Fatal("generate KEK under Root parent: want error, got nil")
	} else if !errors.Is(err, qerrors.ErrParentKeyUnavailable) {
		t.Errorf("generate KEK under Root parent: err = %v, want ErrParentKeyUnavailable", err)
	}
}

func TestGenerateRejectsUnknownParent(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetPolicy(Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	if _, err := s.Generate(constants.KeyTypeDomain, "does-not-exist", "default"); err == nil {
		t.Fatal("generate under unknown parent: want error, got nil")
	} else if !errors.Is(err, qerrors.ErrKeyNotFound) {
		t.Errorf("generate under unknown parent: err = %v, want ErrKeyNotFound", err)
	}
}

func TestGenerateRejectsParentNotReadable(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetPolicy(Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s.Generate(constants.KeyTypeRoot, "", "default")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	// root is still Pending: not yet Active, so it's not readable.
	if _, err := s.Generate(constants.KeyTypeDomain, root.ID, "default"); err == nil {
		t.Fatal("generate under Pending parent: want error, got nil")
	} else if !errors.Is(err, qerrors.ErrParentKeyUnavailable) {
		t.Errorf("generate under Pending parent: err = %v, want ErrParentKeyUnavailable", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	plaintext := []byte("citadel test payload")
	aad := envelope.RawAAD([]byte("aad-context"))
	ctx := envelope.RawContext([]byte("ctx-context"))

	blob, err := s.Encrypt(dek.ID, plaintext, aad, ctx)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	got, err := s.Decrypt(dek.ID, blob, aad, ctx)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}

	rec, err := s.Get(dek.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want 1", rec.UsageCount)
	}
}

func TestEncryptRejectsNonActiveKey(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetPolicy(Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s.Generate(constants.KeyTypeRoot, "", "default")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	// root is Pending, never activated.
	if _, err := s.Encrypt(root.ID, []byte("x"), nil, nil); err == nil {
		t.Fatal("Encrypt on Pending key: want error, got nil")
	} else if !errors.Is(err, qerrors.ErrInvalidStateTransition) {
		t.Errorf("Encrypt on Pending key: err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestDecryptWrongAADFailsOpaque(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	blob, err := s.Encrypt(dek.ID, []byte("secret"), envelope.RawAAD([]byte("right")), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	_, err = s.Decrypt(dek.ID, blob, envelope.RawAAD([]byte("wrong")), nil)
	if !errors.Is(err, qerrors.ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong AAD: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptFailureFeedsThreatEngine(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	blob, err := s.Encrypt(dek.ID, []byte("secret"), nil, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	before := s.threat.Score()
	_, err = s.Decrypt(dek.ID, blob, envelope.RawAAD([]byte("mismatch")), nil)
	if !errors.Is(err, qerrors.ErrDecryptionFailed) {
		t.Fatalf("Decrypt() error = %v, want ErrDecryptionFailed", err)
	}
	after := s.threat.Score()
	if after <= before {
		t.Errorf("threat score after failed decrypt = %v, want greater than %v", after, before)
	}
}

func TestRotationOverdueDeniesEncrypt(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	s.mu.Lock()
	r := s.records[dek.ID]
	past := s.now().Add(-200 * 24 * time.Hour)
	r.ActivatedAt = &past
	s.mu.Unlock()

	_, err := s.Encrypt(dek.ID, []byte("x"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() on overdue key: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonRotationOverdue {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonRotationOverdue)
	}
}

func TestElevatedThreatForcesAutoRotateReason(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	s.mu.Lock()
	r := s.records[dek.ID]
	past := s.now().Add(-200 * 24 * time.Hour)
	r.ActivatedAt = &past
	s.mu.Unlock()

	// Push the threat engine to Elevated (threshold 15) before encrypting.
	s.threat.Ingest(constants.SeverityExternalAdvisory) // 8.0 -> Guarded
	s.threat.Ingest(constants.SeverityExternalAdvisory) // 16.0 -> Elevated

	_, err := s.Encrypt(dek.ID, []byte("x"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() under Elevated threat: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonAutoRotateForced {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonAutoRotateForced)
	}
}

func TestUsageLimitDeniesEncrypt(t *testing.T) {
	s := openTestStore(t)
	limit := uint64(2)
	if err := s.SetPolicy(Policy{ID: "capped", BaseRotationDays: 90, BaseGraceDays: 7, BaseUsageLimit: &limit}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s.Generate(constants.KeyTypeRoot, "", "capped")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	if err := s.Activate(root.ID); err != nil {
		t.Fatalf("activate root: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Encrypt(root.ID, []byte("x"), nil, nil); err != nil {
			t.Fatalf("Encrypt() #%d error = %v", i, err)
		}
	}

	_, err = s.Encrypt(root.ID, []byte("x"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() past usage ceiling: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonUsageExhausted {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonUsageExhausted)
	}
}

func TestMaxLifetimeDeniesEncrypt(t *testing.T) {
	s := openTestStore(t)
	lifetime := 30.0
	if err := s.SetPolicy(Policy{ID: "short-lived", BaseRotationDays: 9000, BaseGraceDays: 7, BaseMaxLifetime: &lifetime}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s.Generate(constants.KeyTypeRoot, "", "short-lived")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	if err := s.Activate(root.ID); err != nil {
		t.Fatalf("activate root: %v", err)
	}

	s.mu.Lock()
	r := s.records[root.ID]
	past := s.now().Add(-60 * 24 * time.Hour)
	r.ActivatedAt = &past
	s.mu.Unlock()

	_, err = s.Encrypt(root.ID, []byte("x"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() past max lifetime: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonLifetimeExceeded {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonLifetimeExceeded)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if err := s.Rotate(dek.ID); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	rec, err := s.Get(dek.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.State != constants.KeyStateRotated {
		t.Fatalf("state after Rotate = %v, want Rotated", rec.State)
	}

	// Encrypt requires Active; Rotated keys are for Decrypt-only grace use.
	if _, err := s.Encrypt(dek.ID, nil, nil, nil); err == nil {
		t.Error("Encrypt() on Rotated key: want error, got nil")
	}

	if err := s.Destroy(dek.ID); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	rec, err = s.Get(dek.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.State != constants.KeyStateDestroyed {
		t.Fatalf("state after Destroy = %v, want Destroyed", rec.State)
	}

	// Destroying an already-Destroyed record is an invalid transition.
	if err := s.Destroy(dek.ID); !errors.Is(err, qerrors.ErrInvalidStateTransition) {
		t.Errorf("second Destroy() err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestSuspendResume(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if err := s.Suspend(dek.ID); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if _, err := s.Encrypt(dek.ID, []byte("x"), nil, nil); !errors.Is(err, qerrors.ErrInvalidStateTransition) {
		t.Errorf("Encrypt() on Suspended key: err = %v, want ErrInvalidStateTransition", err)
	}

	if err := s.Resume(dek.ID); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if _, err := s.Encrypt(dek.ID, []byte("x"), nil, nil); err != nil {
		t.Errorf("Encrypt() after Resume: err = %v, want nil", err)
	}
}

func TestRevokeRequiresReason(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if err := s.Revoke(dek.ID, ""); err == nil {
		t.Fatal("Revoke() with empty reason: want error, got nil")
	}
	if err := s.Revoke(dek.ID, "compromised"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	rec, err := s.Get(dek.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.State != constants.KeyStateRevoked || rec.RevokeReason != "compromised" {
		t.Errorf("record after revoke = %+v, want state Revoked with reason recorded", rec)
	}
}

func TestExpireSweepDestroysElapsedGrace(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if err := s.Rotate(dek.ID); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	s.mu.Lock()
	r := s.records[dek.ID]
	past := s.now().Add(-30 * 24 * time.Hour)
	r.RotatedAt = &past
	s.mu.Unlock()

	destroyed, err := s.ExpireSweep()
	if err != nil {
		t.Fatalf("ExpireSweep() error = %v", err)
	}
	if len(destroyed) != 1 || destroyed[0] != dek.ID {
		t.Fatalf("ExpireSweep() destroyed = %v, want [%s]", destroyed, dek.ID)
	}

	rec, err := s.Get(dek.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.State != constants.KeyStateDestroyed {
		t.Errorf("state after sweep = %v, want Destroyed", rec.State)
	}
}

func TestExpireSweepSkipsFreshGrace(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if err := s.Rotate(dek.ID); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	destroyed, err := s.ExpireSweep()
	if err != nil {
		t.Fatalf("ExpireSweep() error = %v", err)
	}
	if len(destroyed) != 0 {
		t.Errorf("ExpireSweep() destroyed = %v, want none (grace period not elapsed)", destroyed)
	}
}

func TestAuditChainRecordsLifecycleEvents(t *testing.T) {
	s := openTestStore(t)
	root, _, _, dek := generateChain(t, s, "default")

	if _, err := s.Encrypt(dek.ID, []byte("payload"), nil, nil); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := s.Rotate(dek.ID); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	auditPath := filepath.Join(s.dataDir, "citadel-audit.jsonl")
	if err := audit.Verify(auditPath); err != nil {
		t.Fatalf("audit chain verification failed: %v", err)
	}

	records, err := audit.ReadAll(auditPath)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	wantActions := []string{"generate", "activate", "generate", "activate", "generate", "activate", "generate", "activate", "encrypt", "rotate"}
	if len(records) != len(wantActions) {
		t.Fatalf("audit record count = %d, want %d", len(records), len(wantActions))
	}
	for i, want := range wantActions {
		if records[i].Action != want {
			t.Errorf("records[%d].Action = %q, want %q", i, records[i].Action, want)
		}
	}

	_ = root
}

func TestReopenRebuildsChainAndPublicKeys(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	root, _, _, dek := generateChain(t, s1, "default")

	plaintext := []byte("persisted across restart")
	blob, err := s1.Encrypt(dek.ID, plaintext, nil, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	t.Cleanup(func() { s2.Close() })

	got, err := s2.Decrypt(dek.ID, blob, nil, nil)
	if err != nil {
		t.Fatalf("Decrypt() after reopen: err = %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Decrypt() after reopen = %q, want %q", got, plaintext)
	}

	// A freshly generated child under the reloaded root proves the root's
	// public key, not just its secret key, survived the restart (generation
	// wraps the new child under its parent's public key).
	newDomain, err := s2.Generate(constants.KeyTypeDomain, root.ID, "default")
	if err != nil {
		t.Fatalf("generate under reloaded root: %v", err)
	}
	if err := s2.Activate(newDomain.ID); err != nil {
		t.Fatalf("activate under reloaded root: %v", err)
	}
}

// A key may encrypt up to its ceiling, then tightening the base policy to a
// ceiling at or below the current counter denies the next encrypt, and the
// effective ceiling never drops below the floor at any threat level.
func TestUsageCeilingTightenedAfterUse(t *testing.T) {
	s := openTestStore(t)
	_, _, _, dek := generateChain(t, s, "default")

	if _, err := s.Encrypt(dek.ID, []byte("first"), nil, nil); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	limit := uint64(1)
	if err := s.SetPolicy(Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7, BaseUsageLimit: &limit}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	_, err := s.Encrypt(dek.ID, []byte("second"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() past tightened ceiling: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonUsageExhausted {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonUsageExhausted)
	}

	// Escalating to Critical must not loosen the ceiling, and the effective
	// value stays at or above its floor (here clamped by the base of 1).
	for i := 0; i < 7; i++ {
		s.threat.Ingest(constants.SeverityExternalAdvisory)
	}
	if level := s.threat.Level(); level != constants.ThreatLevelCritical {
		t.Fatalf("threat level = %v, want Critical", level)
	}
	eff := s.EffectivePolicy("default")
	if eff.UsageLimit == nil || *eff.UsageLimit != 1 {
		t.Errorf("effective usage limit at Critical = %v, want 1", eff.UsageLimit)
	}
	if _, err := s.Encrypt(dek.ID, []byte("third"), nil, nil); !errors.As(err, &polErr) {
		t.Errorf("Encrypt() at Critical past ceiling: err = %v, want *PolicyError", err)
	}
}

func TestReportRateLimitViolationRaisesThreat(t *testing.T) {
	s := openTestStore(t)

	before := s.threat.Score()
	s.ReportRateLimitViolation()
	after := s.threat.Score()

	if after < before+constants.SeverityRapidAccessPattern-0.1 {
		t.Errorf("score after rate-limit violation = %v, want roughly %v higher than %v",
			after, constants.SeverityRapidAccessPattern, before)
	}
	if s.ThreatLevel() != constants.ThreatLevelLow {
		t.Errorf("one violation (severity 4.0) should stay below the Guarded threshold of 5, got %v", s.ThreatLevel())
	}
}

func TestReopenRestoresPolicies(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	limit := uint64(1)
	if err := s1.SetPolicy(Policy{ID: "capped", BaseRotationDays: 90, BaseGraceDays: 7, BaseUsageLimit: &limit}); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}

	root, err := s1.Generate(constants.KeyTypeRoot, "", "capped")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	if err := s1.Activate(root.ID); err != nil {
		t.Fatalf("activate root: %v", err)
	}
	if _, err := s1.Encrypt(root.ID, []byte("only use"), nil, nil); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	t.Cleanup(func() { s2.Close() })

	// The persisted ceiling of 1 still binds after a restart.
	_, err = s2.Encrypt(root.ID, []byte("over the line"), nil, nil)
	var polErr *PolicyError
	if !errors.As(err, &polErr) {
		t.Fatalf("Encrypt() after reopen: err = %v, want *PolicyError", err)
	}
	if polErr.Reason != ReasonUsageExhausted {
		t.Errorf("Reason = %q, want %q", polErr.Reason, ReasonUsageExhausted)
	}
}

func TestWrongPassphraseCannotRebuildRoot(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, testPassphrase, threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	root, err := s1.Generate(constants.KeyTypeRoot, "", "default")
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}
	if err := s1.Activate(root.ID); err != nil {
		t.Fatalf("activate root: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(dir, "wrong passphrase entirely", threat.New(), telemetry.NullLogger())
	if err != nil {
		t.Fatalf("Open() with wrong passphrase: error = %v, want nil (log-and-continue)", err)
	}
	t.Cleanup(func() { s2.Close() })

	if _, err := s2.Generate(constants.KeyTypeDomain, root.ID, "default"); !errors.Is(err, qerrors.ErrParentKeyUnavailable) {
		t.Errorf("Generate() under unrecoverable root: err = %v, want ErrParentKeyUnavailable", err)
	}
}
