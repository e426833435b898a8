// Package keystore implements the key hierarchy, lifecycle state machine,
// and threat-adaptive policy gate described for Citadel's key management
// layer. A Root record's secret material is protected by a passphrase
// (rootwrap.go); every other record's secret material is sealed under its
// parent's hybrid public key via the envelope facade, so compromising one
// key never exposes its siblings.
package keystore

import (
	gocontext "context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citadel-sec/citadel/internal/audit"
	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
	"github.com/citadel-sec/citadel/internal/telemetry"
	"github.com/citadel-sec/citadel/internal/threat"
	"github.com/citadel-sec/citadel/pkg/crypto"
	"github.com/citadel-sec/citadel/pkg/envelope"
	"github.com/citadel-sec/citadel/pkg/hybridkem"
)

const wrapContextLabel = "citadel-keystore-wrap-v1"

// wrapAAD binds a sealed child secret key to the specific child ID it
// belongs to, so a wrapped blob cannot be replayed under a different
// record's identity.
func wrapAAD(childID string) envelope.AAD {
	return envelope.RawAAD([]byte(childID))
}

func wrapContext() envelope.Context {
	return envelope.RawContext([]byte(wrapContextLabel))
}

// parentTypeFor returns the key type a child of t must have as its parent,
// and false if t is Root (which has no parent).
func parentTypeFor(t constants.KeyType) (constants.KeyType, bool) {
	switch t {
	case constants.KeyTypeRoot:
		return 0, false
	case constants.KeyTypeDomain:
		return constants.KeyTypeRoot, true
	case constants.KeyTypeKEK:
		return constants.KeyTypeDomain, true
	case constants.KeyTypeDEK:
		return constants.KeyTypeKEK, true
	default:
		return 0, false
	}
}

// PolicyError reports a policy-gate denial with a machine-readable reason.
type PolicyError struct {
	KeyID  string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("keystore[%s]: policy denied: %s", e.KeyID, e.Reason)
}

func (e *PolicyError) Unwrap() error {
	return qerrors.ErrPolicyDenied
}

// Policy denial reasons, surfaced to callers through PolicyError.Reason.
const (
	ReasonRotationOverdue  = "rotation-overdue"
	ReasonLifetimeExceeded = "lifetime-exceeded"
	ReasonUsageExhausted   = "usage-exhausted"

	// ReasonAutoRotateForced is reported instead of ReasonRotationOverdue
	// once the threat level has reached Elevated or above: at that point an
	// overdue key is not merely due for rotation, encrypt is refused outright
	// until a successor has been generated and activated.
	ReasonAutoRotateForced = "auto-rotate-forced"
)

// Store holds the in-memory key-record map and mediates every lifecycle
// operation and cryptographic use of the keys it owns. A single
// readers-writer lock guards the map: List/Get take the read lock;
// transitions and usage-counter increments take the write lock.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*KeyRecord
	secrets  map[string]*hybridkem.KeyPair
	policies map[string]Policy

	dataDir        string
	keysDir        string
	rootPassphrase string

	audit   *audit.Sink
	threat  *threat.Engine
	log     *telemetry.Logger
	metrics *telemetry.Collector

	now func() time.Time
}

// Open constructs a Store rooted at dataDir, opening (or creating) its
// audit log and rebuilding in-memory state from any key records already
// persisted under <dataDir>/keys. An audit chain break is logged but does
// not prevent startup.
func Open(dataDir, rootPassphrase string, eng *threat.Engine, log *telemetry.Logger) (*Store, error) {
	if log == nil {
		log = telemetry.NullLogger()
	}
	if eng == nil {
		eng = threat.New()
	}

	if err := crypto.ProbeEntropy(); err != nil {
		return nil, err
	}

	keysDir := filepath.Join(dataDir, "keys")
	if err := os.MkdirAll(keysDir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create keys dir: %w", err)
	}

	auditPath := filepath.Join(dataDir, "citadel-audit.jsonl")
	if err := audit.Verify(auditPath); err != nil {
		log.Warn("keystore: audit chain verification failed at startup, continuing", telemetry.Fields{"error": err.Error()})
		telemetry.Global().RecordChainBreak()
	}
	sink, err := audit.Open(auditPath, log)
	if err != nil {
		return nil, err
	}

	s := &Store{
		records:        make(map[string]*KeyRecord),
		secrets:        make(map[string]*hybridkem.KeyPair),
		policies:       loadPolicies(dataDir, log),
		dataDir:        dataDir,
		keysDir:        keysDir,
		rootPassphrase: rootPassphrase,
		audit:          sink,
		threat:         eng,
		log:            log,
		metrics:        telemetry.Global(),
		now:            time.Now,
	}

	records, err := loadAllRecords(keysDir, log)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	s.rebuildSecrets()

	return s, nil
}

// Close releases the audit sink's underlying file.
func (s *Store) Close() error {
	return s.audit.Close()
}

// auditAppend records a lifecycle event in the audit chain and its append
// latency in the metrics collector. A write failure is logged rather than
// failing the lifecycle operation that triggered it; the next event's append
// retries the sink from its current chain position.
func (s *Store) auditAppend(action string, payload interface{}) {
	start := time.Now()
	if _, err := s.audit.Append("keystore", action, payload); err != nil {
		s.log.Error("keystore: audit append failed", telemetry.Fields{"action": action, "error": err.Error()})
		return
	}
	s.metrics.RecordAuditAppend(time.Since(start))
}

// SetPolicy registers or replaces a named policy template and persists the
// template set so a reopened store enforces the same crypto-periods.
func (s *Store) SetPolicy(p Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return savePolicies(s.dataDir, s.policies)
}

// EffectivePolicy returns policyID's current effective policy under the
// store's threat engine.
func (s *Store) EffectivePolicy(policyID string) EffectivePolicy {
	s.mu.RLock()
	p := s.policies[policyID]
	s.mu.RUnlock()
	return effective(p, s.threat.Scaling())
}

// rebuildSecrets reconstructs the live hybrid key pairs for every
// non-destroyed record by unwrapping from the root down. Records whose
// parent cannot be resolved (a broken chain, or a destroyed ancestor) are
// left without live material; they fail ErrParentKeyUnavailable on use
// rather than during startup, consistent with the "log and continue"
// availability posture.
func (s *Store) rebuildSecrets() {
	pending := make(map[string]*KeyRecord, len(s.records))
	for id, r := range s.records {
		if r.State != constants.KeyStateDestroyed {
			pending[id] = r
		}
	}

	for {
		progress := false
		for id, r := range pending {
			kp, ok := s.unwrapOne(r)
			if !ok {
				continue
			}
			s.secrets[id] = kp
			delete(pending, id)
			progress = true
		}
		if !progress || len(pending) == 0 {
			break
		}
	}

	for id := range pending {
		s.log.Warn("keystore: could not recover secret material at startup", telemetry.Fields{"key_id": id})
	}
}

func (s *Store) unwrapOne(r *KeyRecord) (*hybridkem.KeyPair, bool) {
	if r.Type == constants.KeyTypeRoot {
		if r.RootWrap == nil {
			return nil, false
		}
		secretBytes, err := unwrapRootSecret(r.RootWrap, s.rootPassphrase)
		if err != nil {
			return nil, false
		}
		kp, err := hybridkem.ParseKeyPairWithPublicKey(secretBytes, r.PublicKey)
		if err != nil {
			return nil, false
		}
		return kp, true
	}

	parentKP, ok := s.secrets[r.ParentID]
	if !ok {
		return nil, false
	}
	secretBytes, err := envelope.Open(parentKP, r.WrappedSecretKey, wrapAAD(r.ID), wrapContext())
	if err != nil {
		return nil, false
	}
	kp, err := hybridkem.ParseKeyPairWithPublicKey(secretBytes, r.PublicKey)
	if err != nil {
		return nil, false
	}
	return kp, true
}

// Generate creates a new Pending key record of the given type under
// parentID (empty for Root), with the given policy. The parent must exist
// and be Active or Rotated.
func (s *Store) Generate(keyType constants.KeyType, parentID, policyID string) (*KeyRecord, error) {
	wantParentType, needsParent := parentTypeFor(keyType)

	s.mu.Lock()
	defer s.mu.Unlock()

	var parentKP *hybridkem.KeyPair
	if needsParent {
		parent, ok := s.records[parentID]
		if !ok {
			return nil, qerrors.NewKeystoreError(parentID, qerrors.ErrKeyNotFound)
		}
		if parent.Type != wantParentType {
			return nil, qerrors.NewKeystoreError(parentID, qerrors.ErrParentKeyUnavailable)
		}
		if !parent.readable() {
			return nil, qerrors.NewKeystoreError(parentID, qerrors.ErrParentKeyUnavailable)
		}
		kp, ok := s.secrets[parentID]
		if !ok {
			return nil, qerrors.NewKeystoreError(parentID, qerrors.ErrParentKeyUnavailable)
		}
		parentKP = kp
	} else if parentID != "" {
		return nil, qerrors.NewKeystoreError(parentID, qerrors.ErrInvalidStateTransition)
	}

	kp, err := hybridkem.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	id := uuid.Must(uuid.NewV7()).String()
	record := &KeyRecord{
		ID:        id,
		Type:      keyType,
		State:     constants.KeyStatePending,
		Version:   1,
		ParentID:  parentID,
		PolicyID:  policyID,
		CreatedAt: s.now(),
		PublicKey: kp.PublicKey().Bytes(),
	}

	if keyType == constants.KeyTypeRoot {
		wrap, err := wrapRootSecret(kp.Bytes(), s.rootPassphrase)
		if err != nil {
			return nil, err
		}
		record.RootWrap = wrap
	} else {
		wrapped, err := envelope.Seal(parentKP.PublicKey(), kp.Bytes(), wrapAAD(id), wrapContext())
		if err != nil {
			return nil, err
		}
		record.WrappedSecretKey = wrapped
	}

	s.records[id] = record
	s.secrets[id] = kp

	if err := saveRecord(s.keysDir, record); err != nil {
		return nil, err
	}
	s.auditAppend("generate", map[string]string{"key_id": id, "type": keyType.String()})
	s.metrics.RecordKeyGenerated()

	return copyRecord(record), nil
}

// Activate moves a Pending record to Active.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	to, err := transition(r.State, "activate")
	if err != nil {
		return qerrors.NewKeystoreError(id, err)
	}

	now := s.now()
	r.State = to
	r.ActivatedAt = &now

	if err := saveRecord(s.keysDir, r); err != nil {
		return err
	}
	s.auditAppend("activate", map[string]string{"key_id": id})
	s.metrics.RecordStateTransition()
	return nil
}

// Encrypt seals plaintext under the Active key id, enforcing the policy
// gate and atomically committing the usage-counter increment with a
// successful seal.
func (s *Store) Encrypt(id string, plaintext []byte, aad envelope.AAD, context envelope.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	if r.State != constants.KeyStateActive {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrInvalidStateTransition)
	}
	kp, ok := s.secrets[id]
	if !ok {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrParentKeyUnavailable)
	}

	policy := s.policies[r.PolicyID]
	level := s.threat.Level()
	eff := effective(policy, constants.ThreatScalingTable[level])
	now := s.now()

	if r.age(now) > durationDays(eff.RotationDays) {
		reason := ReasonRotationOverdue
		if level >= constants.ThreatLevelElevated {
			reason = ReasonAutoRotateForced
		}
		s.metrics.RecordPolicyDenial()
		return nil, &PolicyError{KeyID: id, Reason: reason}
	}
	if eff.MaxLifetime != nil && r.age(now) > durationDays(*eff.MaxLifetime) {
		s.metrics.RecordPolicyDenial()
		return nil, &PolicyError{KeyID: id, Reason: ReasonLifetimeExceeded}
	}
	if eff.UsageLimit != nil && r.UsageCount >= *eff.UsageLimit {
		s.metrics.RecordPolicyDenial()
		return nil, &PolicyError{KeyID: id, Reason: ReasonUsageExhausted}
	}

	start := time.Now()
	_, endSpan := telemetry.StartSpan(gocontext.Background(), telemetry.SpanEnvelopeSeal)
	ciphertext, err := envelope.Seal(kp.PublicKey(), plaintext, aad, context)
	endSpan(err)
	s.metrics.RecordSeal(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.UsageCount++
	if err := saveRecord(s.keysDir, r); err != nil {
		return nil, err
	}
	s.auditAppend("encrypt", map[string]interface{}{"key_id": id, "usage_count": r.UsageCount})
	s.metrics.RecordUsageIncrement()

	return ciphertext, nil
}

// Decrypt opens blob under key id, which must be Active or Rotated (grace).
// A failed open feeds a DecryptionFailure event into the threat engine
// automatically.
func (s *Store) Decrypt(id string, blob []byte, aad envelope.AAD, context envelope.Context) ([]byte, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	var kp *hybridkem.KeyPair
	if ok {
		kp, ok = s.secrets[id]
	}
	s.mu.RUnlock()

	if !ok {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	if !r.readable() {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrInvalidStateTransition)
	}

	start := time.Now()
	_, endSpan := telemetry.StartSpan(gocontext.Background(), telemetry.SpanEnvelopeOpen)
	plaintext, err := envelope.Open(kp, blob, aad, context)
	endSpan(err)
	s.metrics.RecordOpen(time.Since(start), err)
	if err != nil {
		level := s.threat.Ingest(constants.SeverityDecryptionFailure)
		s.metrics.RecordThreatEvent(int(level))
		s.auditAppend("decrypt_failed", map[string]string{"key_id": id})
		return nil, err
	}
	return plaintext, nil
}

// ReportRateLimitViolation feeds a rate-limit violation observed by an
// external transport into the threat engine as a RapidAccessPattern event,
// returning the resulting threat level. Failed opens are ingested
// automatically by Decrypt; this is the entry point for the one other
// measured coupling, which only the transport can observe.
func (s *Store) ReportRateLimitViolation() constants.ThreatLevel {
	level := s.threat.Ingest(constants.SeverityRapidAccessPattern)
	s.metrics.RecordThreatEvent(int(level))
	return level
}

// ThreatLevel returns the threat engine's current level.
func (s *Store) ThreatLevel() constants.ThreatLevel {
	return s.threat.Level()
}

// Rotate moves an Active record to Rotated, starting its grace period. It
// does not itself create a successor; Generate+Activate a new record under
// the same parent and policy to restore encrypt capability.
func (s *Store) Rotate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	to, err := transition(r.State, "rotate")
	if err != nil {
		return qerrors.NewKeystoreError(id, err)
	}

	now := s.now()
	r.State = to
	r.RotatedAt = &now

	if err := saveRecord(s.keysDir, r); err != nil {
		return err
	}
	s.auditAppend("rotate", map[string]string{"key_id": id})
	s.metrics.RecordStateTransition()
	return nil
}

// Suspend moves an Active record to Suspended.
func (s *Store) Suspend(id string) error {
	return s.simpleTransition(id, "suspend", "suspend")
}

// Resume moves a Suspended record back to Active.
func (s *Store) Resume(id string) error {
	return s.simpleTransition(id, "resume", "resume")
}

func (s *Store) simpleTransition(id, op, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	to, err := transition(r.State, op)
	if err != nil {
		return qerrors.NewKeystoreError(id, err)
	}
	r.State = to

	if err := saveRecord(s.keysDir, r); err != nil {
		return err
	}
	s.auditAppend(action, map[string]string{"key_id": id})
	s.metrics.RecordStateTransition()
	return nil
}

// Revoke moves any non-terminal record to Revoked, recording the mandatory
// reason.
func (s *Store) Revoke(id, reason string) error {
	if reason == "" {
		return fmt.Errorf("keystore: revoke reason is mandatory")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	to, err := transition(r.State, "revoke")
	if err != nil {
		return qerrors.NewKeystoreError(id, err)
	}
	r.State = to
	r.RevokeReason = reason

	if err := saveRecord(s.keysDir, r); err != nil {
		return err
	}
	s.auditAppend("revoke", map[string]string{"key_id": id, "reason": reason})
	s.metrics.RecordStateTransition()
	return nil
}

// Destroy moves any non-terminal record to Destroyed, dropping its live key
// pair (KeyPair.Zeroize, which does not overwrite the key objects) and
// clearing the persisted wrapped form.
func (s *Store) Destroy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyLocked(id)
}

func (s *Store) destroyLocked(id string) error {
	r, ok := s.records[id]
	if !ok {
		return qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	to, err := transition(r.State, "destroy")
	if err != nil {
		return qerrors.NewKeystoreError(id, err)
	}

	if kp, ok := s.secrets[id]; ok {
		kp.Zeroize()
		delete(s.secrets, id)
	}

	r.State = to
	r.WrappedSecretKey = nil
	r.RootWrap = nil

	if err := saveRecord(s.keysDir, r); err != nil {
		return err
	}
	s.auditAppend("destroy", map[string]string{"key_id": id})
	s.metrics.RecordStateTransition()
	return nil
}

// ExpireSweep destroys every Rotated record whose grace period has
// elapsed, returning the IDs destroyed.
func (s *Store) ExpireSweep() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var destroyed []string
	for id, r := range s.records {
		if r.State != constants.KeyStateRotated {
			continue
		}
		policy := s.policies[r.PolicyID]
		eff := effective(policy, s.threat.Scaling())
		if r.graceElapsed(now) <= durationDays(eff.GraceDays) {
			continue
		}
		if err := s.destroyLocked(id); err != nil {
			return destroyed, err
		}
		destroyed = append(destroyed, id)
	}
	return destroyed, nil
}

// Get returns a copy of the key record for id.
func (s *Store) Get(id string) (*KeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, qerrors.NewKeystoreError(id, qerrors.ErrKeyNotFound)
	}
	return copyRecord(r), nil
}

// List returns a copy of every key record currently known to the store.
func (s *Store) List() []*KeyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*KeyRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, copyRecord(r))
	}
	return out
}

func copyRecord(r *KeyRecord) *KeyRecord {
	cp := *r
	return &cp
}

func durationDays(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}
