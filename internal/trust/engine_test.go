package trust

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/domain"
)

var evalTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return evalTime }

func testConfig() domain.PolicyConfig {
	return domain.PolicyConfig{
		Thresholds: domain.Thresholds{Allow: 70, MFA: 40, Block: 0},
		FactorWeights: domain.FactorWeights{
			DeviceTrust:         30,
			NetworkSecurity:     25,
			ResourceSensitivity: 20,
			UserBehavior:        15,
			TimeContext:         10,
		},
		DeviceScoring:       domain.DeviceScoring{Managed: 40, Personal: 20, Unverified: -10, Compromised: -50},
		NetworkScoring:      domain.NetworkScoring{Corporate: 30, Home: 10, Public: -30, VPN: 20},
		ResourceMultipliers: domain.ResourceMultipliers{Standard: 1.0, Elevated: 0.9, Critical: 0.8},
		BehavioralRules: domain.BehavioralRules{
			NewDevicePenalty:       -30,
			UnusualLocationPenalty: -20,
			OffHoursPenalty:        -10,
			RapidAccessPenalty:     -15,
		},
		MFARules: domain.MFARules{AlwaysRequireForCritical: true},
	}
}

func testPolicy(cfg domain.PolicyConfig) *domain.Policy {
	return &domain.Policy{
		ID:      uuid.New(),
		Version: 1,
		Name:    "test policy",
		Status:  domain.PolicyActive,
		Config:  cfg,
	}
}

func managedDevice() *domain.Device {
	return &domain.Device{
		ID:          uuid.New(),
		DeviceType:  domain.DeviceManaged,
		TrustLevel:  domain.TrustTrusted,
		IsManaged:   true,
		FirstSeenAt: evalTime.Add(-30 * 24 * time.Hour),
	}
}

func unverifiedDevice(firstSeen time.Time) *domain.Device {
	return &domain.Device{
		ID:          uuid.New(),
		DeviceType:  domain.DevicePersonal,
		TrustLevel:  domain.TrustUnverified,
		FirstSeenAt: firstSeen,
	}
}

func testResource(sensitivity domain.Sensitivity, mfaRequired bool) *domain.Resource {
	return &domain.Resource{
		ID:          uuid.New(),
		Name:        "test resource",
		Sensitivity: sensitivity,
		MFARequired: mfaRequired,
	}
}

func testContext(network classify.NetworkType, deviceType domain.DeviceType) classify.Context {
	return classify.Context{
		DeviceType:  deviceType,
		NetworkType: network,
		IPAddress:   "10.1.2.3",
	}
}

func TestEvaluate_ManagedCorporateStandard(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)
	policy := testPolicy(testConfig())

	// 50 + 40*0.30 + 30*0.25 + 10*0.20 + 10*0.15 = 73
	eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, false),
		testContext(classify.NetworkCorporate, domain.DeviceManaged))

	assert.Equal(t, 73, eval.TrustScore)
	assert.Equal(t, domain.DecisionAllow, eval.Decision)
	assert.Equal(t, ReasonScoreAllow, eval.DecisionReason)
	assert.False(t, eval.MFARequired)
}

func TestEvaluate_NewUnverifiedDeviceOnPublicNetwork(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)
	policy := testPolicy(testConfig())
	device := unverifiedDevice(evalTime.Add(-1 * time.Hour))

	// 50 - 10*0.30 - 30*0.25 + 10*0.20 - 30*0.15 = 37
	eval := engine.Evaluate(policy, device, testResource(domain.SensitivityStandard, false),
		testContext(classify.NetworkPublic, domain.DevicePersonal))

	assert.Equal(t, 37, eval.TrustScore)
	assert.Equal(t, domain.DecisionBlocked, eval.Decision)
	assert.Equal(t, ReasonScoreTooLow, eval.DecisionReason)
	assert.False(t, eval.MFARequired)
}

func TestEvaluate_TrustedPersonalDeviceFromHome(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)
	policy := testPolicy(testConfig())
	device := unverifiedDevice(evalTime.Add(-30 * 24 * time.Hour))
	device.TrustLevel = domain.TrustTrusted

	// 50 + 20*0.30 + 10*0.25 + 10*0.20 + 10*0.15 = 62
	eval := engine.Evaluate(policy, device, testResource(domain.SensitivityStandard, false),
		testContext(classify.NetworkHome, domain.DevicePersonal))

	assert.Equal(t, 62, eval.TrustScore)
	assert.Equal(t, domain.DecisionMFARequired, eval.Decision)
	assert.Equal(t, ReasonScoreMFA, eval.DecisionReason)
	assert.True(t, eval.MFARequired)
}

func TestEvaluate_MandatoryMFAOverridesScore(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)

	t.Run("resource flag forces step-up despite high score", func(t *testing.T) {
		cfg := testConfig()
		cfg.MFARules.AlwaysRequireForCritical = false
		policy := testPolicy(cfg)

		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, true),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.GreaterOrEqual(t, eval.TrustScore, policy.Config.Thresholds.Allow)
		assert.Equal(t, domain.DecisionMFARequired, eval.Decision)
		assert.Equal(t, ReasonResourceMFA, eval.DecisionReason)
		assert.True(t, eval.MFARequired)
	})

	t.Run("critical sensitivity forces step-up under policy rule", func(t *testing.T) {
		policy := testPolicy(testConfig())

		// (50 + 12 + 7.5 - 3 + 1.5) * 0.8 = 54.4
		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityCritical, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 54, eval.TrustScore)
		assert.Equal(t, domain.DecisionMFARequired, eval.Decision)
		assert.Equal(t, ReasonResourceMFA, eval.DecisionReason)
	})

	t.Run("critical without policy rule falls back to thresholds", func(t *testing.T) {
		cfg := testConfig()
		cfg.MFARules.AlwaysRequireForCritical = false
		policy := testPolicy(cfg)

		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityCritical, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 54, eval.TrustScore)
		assert.Equal(t, domain.DecisionMFARequired, eval.Decision)
		assert.Equal(t, ReasonScoreMFA, eval.DecisionReason)
	})
}

func TestEvaluate_ClampBounds(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)

	t.Run("floor at zero", func(t *testing.T) {
		cfg := testConfig()
		cfg.DeviceScoring.Compromised = -200
		cfg.FactorWeights.DeviceTrust = 100
		cfg.MFARules.AlwaysRequireForCritical = false
		policy := testPolicy(cfg)

		device := unverifiedDevice(evalTime.Add(-48 * time.Hour))
		device.TrustLevel = domain.TrustCompromised

		eval := engine.Evaluate(policy, device, testResource(domain.SensitivityStandard, false),
			testContext(classify.NetworkPublic, domain.DevicePersonal))

		assert.Equal(t, 0, eval.TrustScore)
		assert.Equal(t, domain.DecisionBlocked, eval.Decision)
	})

	t.Run("ceiling at one hundred", func(t *testing.T) {
		cfg := testConfig()
		cfg.DeviceScoring.Managed = 300
		cfg.FactorWeights.DeviceTrust = 100
		policy := testPolicy(cfg)

		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 100, eval.TrustScore)
		assert.Equal(t, domain.DecisionAllow, eval.Decision)
	})

	t.Run("multiplier applies to the clamped sum", func(t *testing.T) {
		cfg := testConfig()
		cfg.DeviceScoring.Managed = 300
		cfg.FactorWeights.DeviceTrust = 100
		cfg.MFARules.AlwaysRequireForCritical = false
		policy := testPolicy(cfg)

		// Sum clamps to 100 before the 0.9 elevated multiplier, so the
		// score is 90, not a fraction of the raw sum.
		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityElevated, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 90, eval.TrustScore)
	})
}

func TestEvaluate_RoundingAtThresholdBoundary(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)

	t.Run("69.5 rounds up to the allow threshold", func(t *testing.T) {
		cfg := testConfig()
		cfg.FactorWeights.ResourceSensitivity = 0
		cfg.FactorWeights.UserBehavior = 0
		policy := testPolicy(cfg)

		// 50 + 40*0.30 + 30*0.25 = 69.5
		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 70, eval.TrustScore)
		assert.Equal(t, domain.DecisionAllow, eval.Decision)
	})

	t.Run("69.4 rounds down below the allow threshold", func(t *testing.T) {
		cfg := testConfig()
		cfg.FactorWeights.ResourceSensitivity = 0
		cfg.FactorWeights.UserBehavior = 0
		cfg.FactorWeights.NetworkSecurity = 37
		cfg.NetworkScoring.Corporate = 20
		policy := testPolicy(cfg)

		// 50 + 40*0.30 + 20*0.37 = 69.4
		eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, false),
			testContext(classify.NetworkCorporate, domain.DeviceManaged))

		assert.Equal(t, 69, eval.TrustScore)
		assert.Equal(t, domain.DecisionMFARequired, eval.Decision)
	})
}

func TestEvaluate_FactorOrderIsFixed(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)
	policy := testPolicy(testConfig())

	eval := engine.Evaluate(policy, managedDevice(), testResource(domain.SensitivityStandard, false),
		testContext(classify.NetworkCorporate, domain.DeviceManaged))

	require.Len(t, eval.Factors, 4)
	assert.Equal(t, domain.CategoryDevice, eval.Factors[0].Category)
	assert.Equal(t, domain.CategoryNetwork, eval.Factors[1].Category)
	assert.Equal(t, domain.CategoryResource, eval.Factors[2].Category)
	assert.Equal(t, domain.CategoryBehavioral, eval.Factors[3].Category)
}

func TestEvaluate_Deterministic(t *testing.T) {
	engine := NewEngineWithClock(fixedClock)
	policy := testPolicy(testConfig())
	device := managedDevice()
	resource := testResource(domain.SensitivityElevated, false)
	ctx := testContext(classify.NetworkVPN, domain.DeviceManaged)

	first := engine.Evaluate(policy, device, resource, ctx)
	second := engine.Evaluate(policy, device, resource, ctx)

	assert.Equal(t, first, second)
}
