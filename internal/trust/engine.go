// Package trust implements the zero-trust evaluation engine: per-factor
// scoring, score aggregation and threshold-based decisioning.
package trust

import (
	"math"
	"time"

	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/domain"
)

// baseScore is the neutral prior before any factor is applied.
const baseScore = 50.0

// Reason strings attached to decisions.
const (
	ReasonResourceMFA = "MFA required for this resource"
	ReasonScoreAllow  = "Trust score meets threshold for direct access"
	ReasonScoreMFA    = "Trust score requires step-up MFA authentication"
	ReasonScoreTooLow = "Trust score too low - access denied"
)

// Evaluation is the engine's output for one access attempt.
type Evaluation struct {
	TrustScore     int                     `json:"trust_score"`
	Decision       domain.Decision         `json:"decision"`
	DecisionReason string                  `json:"decision_reason"`
	Factors        []domain.DecisionFactor `json:"factors"`
	MFARequired    bool                    `json:"mfa_required"`
}

// Engine computes trust evaluations. Evaluation is a pure function of its
// inputs plus the injected clock; the engine performs no I/O.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an engine with a fixed clock source.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Evaluate computes the trust score and decision for one access attempt.
// Factor order is fixed (device, network, resource, behavior) and determines
// the presentation order of the returned factors.
//
// Order of operations: additive factors over a neutral prior of 50, clamp to
// [0,100], apply the resource sensitivity multiplier, clamp again, then round
// only for the returned integer score.
func (e *Engine) Evaluate(policy *domain.Policy, device *domain.Device, resource *domain.Resource, ctx classify.Context) Evaluation {
	factors := []domain.DecisionFactor{
		deviceFactor(policy, device, ctx),
		networkFactor(policy, ctx),
		resourceFactor(policy, resource),
		behaviorFactor(policy, device, e.now()),
	}

	score := baseScore
	for _, f := range factors {
		score += f.Impact
	}

	score = clamp(score)
	score = clamp(score * policy.Config.ResourceMultipliers.For(resource.Sensitivity))

	rounded := int(math.Round(score))
	decision, reason := decide(policy, resource, rounded)

	return Evaluation{
		TrustScore:     rounded,
		Decision:       decision,
		DecisionReason: reason,
		Factors:        factors,
		MFARequired:    decision == domain.DecisionMFARequired,
	}
}

// decide derives the decision in fixed priority order. A resource that
// mandates MFA forces step-up before score thresholds are consulted, so
// MFA-mandatory resources require step-up regardless of the computed score.
func decide(policy *domain.Policy, resource *domain.Resource, score int) (domain.Decision, string) {
	mfaMandatory := resource.MFARequired ||
		(policy.Config.MFARules.AlwaysRequireForCritical && resource.Sensitivity == domain.SensitivityCritical)
	if mfaMandatory {
		return domain.DecisionMFARequired, ReasonResourceMFA
	}

	t := policy.Config.Thresholds
	switch {
	case score >= t.Allow:
		return domain.DecisionAllow, ReasonScoreAllow
	case score >= t.MFA:
		return domain.DecisionMFARequired, ReasonScoreMFA
	default:
		return domain.DecisionBlocked, ReasonScoreTooLow
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
