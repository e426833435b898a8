package keystore

import (
	"time"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
)

// KeyRecord is the persisted and in-memory representation of a single key
// in the hierarchy. PublicKey is always readable; the protected secret key
// (WrappedSecretKey, or RootWrap for a Root record) is only meaningful while
// the record is Active or Rotated, and is nil once the record reaches
// Destroyed.
type KeyRecord struct {
	ID       string             `json:"id"`
	Type     constants.KeyType  `json:"type"`
	State    constants.KeyState `json:"state"`
	Version  int                `json:"version"`
	ParentID string             `json:"parent_id,omitempty"`
	PolicyID string             `json:"policy_id"`

	CreatedAt    time.Time  `json:"created_at"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	RotatedAt    *time.Time `json:"rotated_at,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`

	UsageCount uint64 `json:"usage_count"`

	PublicKey []byte `json:"public_key"`

	// WrappedSecretKey is this record's hybrid secret key, sealed under its
	// parent's public key via the envelope facade. Empty for Root records,
	// which are protected by RootWrap instead.
	WrappedSecretKey []byte `json:"wrapped_secret_key,omitempty"`

	// RootWrap protects a Root record's secret key with a passphrase-derived
	// key, since a Root record has no parent to wrap under.
	RootWrap *RootWrapping `json:"root_wrap,omitempty"`
}

// allowedTransitions enumerates, for each source state, the set of
// operations that may move a record out of it and the destination state.
// Destroyed is terminal: it has no outgoing edges.
var allowedTransitions = map[constants.KeyState]map[string]constants.KeyState{
	constants.KeyStatePending: {
		"activate": constants.KeyStateActive,
		"revoke":   constants.KeyStateRevoked,
		"destroy":  constants.KeyStateDestroyed,
	},
	constants.KeyStateActive: {
		"rotate":  constants.KeyStateRotated,
		"suspend": constants.KeyStateSuspended,
		"revoke":  constants.KeyStateRevoked,
		"destroy": constants.KeyStateDestroyed,
	},
	constants.KeyStateRotated: {
		"expire":  constants.KeyStateDestroyed,
		"revoke":  constants.KeyStateRevoked,
		"destroy": constants.KeyStateDestroyed,
	},
	constants.KeyStateSuspended: {
		"resume":  constants.KeyStateActive,
		"revoke":  constants.KeyStateRevoked,
		"destroy": constants.KeyStateDestroyed,
	},
	constants.KeyStateRevoked: {
		"destroy": constants.KeyStateDestroyed,
	},
}

// transition returns the destination state for op from the record's
// current state, or ErrInvalidStateTransition if op is not permitted.
func transition(from constants.KeyState, op string) (constants.KeyState, error) {
	ops, ok := allowedTransitions[from]
	if !ok {
		return 0, qerrors.ErrInvalidStateTransition
	}
	to, ok := ops[op]
	if !ok {
		return 0, qerrors.ErrInvalidStateTransition
	}
	return to, nil
}

// readable reports whether a record's secret material may be used for
// decrypt: Active or Rotated (grace).
func (r *KeyRecord) readable() bool {
	return r.State == constants.KeyStateActive || r.State == constants.KeyStateRotated
}

// age returns the elapsed time since the record's activation, or zero if it
// has never been activated.
func (r *KeyRecord) age(now time.Time) time.Duration {
	if r.ActivatedAt == nil {
		return 0
	}
	return now.Sub(*r.ActivatedAt)
}

// graceElapsed returns the elapsed time since rotation, or zero if the
// record has not been rotated.
func (r *KeyRecord) graceElapsed(now time.Time) time.Duration {
	if r.RotatedAt == nil {
		return 0
	}
	return now.Sub(*r.RotatedAt)
}
