package keystore

import (
	"math"

	"github.com/citadel-sec/citadel/internal/constants"
)

// Policy is an immutable crypto-period template. A nil BaseMaxLifetime or
// BaseUsageLimit means that dimension is unbounded at the base level; the
// threat-scaled floors still apply once a value exists to scale.
type Policy struct {
	ID               string   `json:"id"`
	BaseRotationDays float64  `json:"base_rotation_days"`
	BaseGraceDays    float64  `json:"base_grace_days"`
	BaseMaxLifetime  *float64 `json:"base_max_lifetime_days,omitempty"`
	BaseUsageLimit   *uint64  `json:"base_usage_limit,omitempty"`
}

// EffectivePolicy is a Policy's base values scaled by the current threat
// level and clamped to the policy floors.
type EffectivePolicy struct {
	RotationDays float64
	GraceDays    float64
	MaxLifetime  *float64
	UsageLimit   *uint64
}

// effective computes p's effective policy under scaling.
// effective.field = max(base.field * scaling.field, floor[field]).
func effective(p Policy, scaling constants.PolicyScaling) EffectivePolicy {
	out := EffectivePolicy{
		RotationDays: math.Max(p.BaseRotationDays*scaling.AgeFactor, constants.MinActiveAgeDays),
		GraceDays:    math.Max(p.BaseGraceDays*scaling.GraceFactor, constants.MinGraceDays),
	}

	if p.BaseMaxLifetime != nil {
		lifetime := math.Max(*p.BaseMaxLifetime*scaling.LifetimeFactor, constants.MinLifetimeDays)
		out.MaxLifetime = &lifetime
	}

	if p.BaseUsageLimit != nil {
		base := float64(*p.BaseUsageLimit)
		// The usage floor guards against threat scaling starving a key of
		// its remaining uses; it never grants more uses than the base
		// policy did, so a small base ceiling stays authoritative.
		floor := math.Min(math.Max(constants.MinUsageFraction*base, constants.MinUsageCount), base)
		scaled := math.Max(base*scaling.UsageFactor, floor)
		limit := uint64(math.Ceil(scaled))
		out.UsageLimit = &limit
	}

	return out
}
