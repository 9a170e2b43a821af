package trust

import (
	"fmt"
	"time"

	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/domain"
)

// newDeviceWindow is the age under which a device counts as new for the
// behavior factor.
const newDeviceWindow = 24 * time.Hour

// Raw scores for the resource sensitivity factor. These are fixed by the
// decision model, independent of the policy scoring tables.
const (
	resourceStandardScore = 10
	resourceElevatedScore = -5
	resourceCriticalScore = -15
)

// deviceFactor scores device trust. Precedence: managed posture first, then
// the registry's standing trust level.
func deviceFactor(p *domain.Policy, device *domain.Device, ctx classify.Context) domain.DecisionFactor {
	scoring := p.Config.DeviceScoring
	weight := p.Config.FactorWeights.DeviceTrust

	var score int
	var status domain.FactorStatus
	var details string

	switch {
	case device.IsManaged || ctx.DeviceType == domain.DeviceManaged:
		score, status = scoring.Managed, domain.FactorPass
		details = "device is corporate managed"
	case device.TrustLevel == domain.TrustTrusted:
		score, status = scoring.Personal, domain.FactorWarn
		details = "personal device with established trust"
	case device.TrustLevel == domain.TrustCompromised:
		score, status = scoring.Compromised, domain.FactorFail
		details = "device flagged as compromised"
	default:
		score, status = scoring.Unverified, domain.FactorWarn
		details = "device has not been verified"
	}

	return makeFactor("Device Trust", domain.CategoryDevice, status, score, weight, details)
}

// networkFactor scores network security from the classified network type.
// Unrecognized networks score zero and fail.
func networkFactor(p *domain.Policy, ctx classify.Context) domain.DecisionFactor {
	scoring := p.Config.NetworkScoring
	weight := p.Config.FactorWeights.NetworkSecurity

	var score int
	var status domain.FactorStatus
	var details string

	switch ctx.NetworkType {
	case classify.NetworkCorporate:
		score, status = scoring.Corporate, domain.FactorPass
		details = "request from corporate network"
	case classify.NetworkHome:
		score, status = scoring.Home, domain.FactorWarn
		details = "request from home network"
	case classify.NetworkVPN:
		score, status = scoring.VPN, domain.FactorWarn
		details = "request over VPN"
	case classify.NetworkPublic:
		score, status = scoring.Public, domain.FactorFail
		details = "request from public network"
	default:
		score, status = 0, domain.FactorFail
		details = fmt.Sprintf("unrecognized network type %q", ctx.NetworkType)
	}

	return makeFactor("Network Security", domain.CategoryNetwork, status, score, weight, details)
}

// resourceFactor scores resource sensitivity with fixed raw values.
func resourceFactor(p *domain.Policy, resource *domain.Resource) domain.DecisionFactor {
	weight := p.Config.FactorWeights.ResourceSensitivity

	var score int
	var status domain.FactorStatus

	switch resource.Sensitivity {
	case domain.SensitivityElevated:
		score, status = resourceElevatedScore, domain.FactorWarn
	case domain.SensitivityCritical:
		score, status = resourceCriticalScore, domain.FactorWarn
	default:
		score, status = resourceStandardScore, domain.FactorPass
	}

	details := fmt.Sprintf("resource sensitivity is %s", resource.Sensitivity)
	return makeFactor("Resource Sensitivity", domain.CategoryResource, status, score, weight, details)
}

// behaviorFactor penalizes devices first seen within the last 24 hours.
func behaviorFactor(p *domain.Policy, device *domain.Device, now time.Time) domain.DecisionFactor {
	weight := p.Config.FactorWeights.UserBehavior

	if device.Age(now) < newDeviceWindow {
		return makeFactor("User Behavior", domain.CategoryBehavioral, domain.FactorWarn,
			p.Config.BehavioralRules.NewDevicePenalty, weight,
			"device first seen less than 24 hours ago")
	}

	return makeFactor("User Behavior", domain.CategoryBehavioral, domain.FactorPass,
		10, weight, "no behavioral anomalies detected")
}

// makeFactor derives the weighted impact. The impact stays fractional here;
// rounding happens once on the final score.
func makeFactor(name string, cat domain.FactorCategory, status domain.FactorStatus, score, weight int, details string) domain.DecisionFactor {
	return domain.DecisionFactor{
		Name:     name,
		Category: cat,
		Status:   status,
		Score:    score,
		Weight:   weight,
		Impact:   float64(score) * float64(weight) / 100,
		Details:  details,
	}
}
