// Package threat implements the adaptive threat-scoring engine that scales
// keystore policy under measured pressure. A single mutex-guarded score
// rises on ingested events and decays multiplicatively on a wall-clock
// schedule; a derived, hysteresis-gated level feeds the keystore's
// effective-policy calculation.
package threat

import (
	"math"
	"sync"
	"time"

	"github.com/citadel-sec/citadel/internal/constants"
)

// Engine tracks a single threat score and its derived level. Decay is
// computed on read from the elapsed time since the last update, never by a
// background timer, so behavior is deterministic under replay.
type Engine struct {
	mu           sync.Mutex
	score        float64
	level        constants.ThreatLevel
	levelEntered float64 // escalation threshold of the current level, for hysteresis
	lastUpdate   time.Time
	now          func() time.Time
}

// New creates an engine starting at ThreatLevelLow with a zero score.
func New() *Engine {
	return &Engine{
		level:        constants.ThreatLevelLow,
		levelEntered: constants.ThreatEscalationThreshold[constants.ThreatLevelLow],
		lastUpdate:   time.Now(),
		now:          time.Now,
	}
}

// Ingest adds severity to the score and re-evaluates the level.
func (e *Engine) Ingest(severity float64) constants.ThreatLevel {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decayLocked()
	e.score += severity
	e.recomputeLevelLocked()
	return e.level
}

// Score returns the current score after applying decay for elapsed time.
func (e *Engine) Score() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decayLocked()
	return e.score
}

// Level returns the current threat level after applying decay for elapsed
// time.
func (e *Engine) Level() constants.ThreatLevel {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.decayLocked()
	e.recomputeLevelLocked()
	return e.level
}

// decayLocked applies multiplicative decay for the time elapsed since the
// last update. Must be called with mu held.
func (e *Engine) decayLocked() {
	now := e.now()
	elapsed := now.Sub(e.lastUpdate)
	e.lastUpdate = now
	if elapsed <= 0 || e.score <= 0 {
		return
	}

	ticks := float64(elapsed) / float64(constants.ThreatDecayTick)
	e.score *= math.Pow(constants.ThreatDecayFactor, ticks)
	if e.score < 0 {
		e.score = 0
	}
}

// recomputeLevelLocked applies escalation and hysteresis-gated
// de-escalation. Must be called with mu held, after decayLocked.
func (e *Engine) recomputeLevelLocked() {
	raw := rawLevel(e.score)

	if raw > e.level {
		e.level = raw
		e.levelEntered = constants.ThreatEscalationThreshold[raw]
		return
	}

	if raw < e.level {
		// De-escalation requires the score to fall below the hysteresis
		// fraction of the threshold at which the current level was entered.
		if e.score < constants.HysteresisFactor*e.levelEntered {
			e.level = raw
			e.levelEntered = constants.ThreatEscalationThreshold[raw]
		}
	}
}

// rawLevel returns the level whose escalation threshold the score meets or
// exceeds, ignoring hysteresis.
func rawLevel(score float64) constants.ThreatLevel {
	level := constants.ThreatLevelLow
	for _, l := range []constants.ThreatLevel{
		constants.ThreatLevelCritical,
		constants.ThreatLevelHigh,
		constants.ThreatLevelElevated,
		constants.ThreatLevelGuarded,
		constants.ThreatLevelLow,
	} {
		if score >= constants.ThreatEscalationThreshold[l] {
			level = l
			break
		}
	}
	return level
}

// Scaling returns the policy scaling factors for the engine's current
// level.
func (e *Engine) Scaling() constants.PolicyScaling {
	return constants.ThreatScalingTable[e.Level()]
}
