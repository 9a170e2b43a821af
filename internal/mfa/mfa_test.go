package mfa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// rfcSecret is the base32 encoding of the RFC 6238 test key
// "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func clockAt(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

// --- TOTP Tests ---

func TestTOTPVerify_RFCVectors(t *testing.T) {
	cases := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			v := NewTOTPVerifierWithClock(clockAt(tc.unix))
			assert.True(t, v.Verify(rfcSecret, tc.code))
		})
	}
}

func TestTOTPVerify_SkewWindow(t *testing.T) {
	// At t=59 the counter is 1; codes for counters 0 and 2 sit inside the
	// one-step skew, counter 3 does not.
	v := NewTOTPVerifierWithClock(clockAt(59))

	assert.True(t, v.Verify(rfcSecret, "755224"), "previous step accepted")
	assert.True(t, v.Verify(rfcSecret, "359152"), "next step accepted")
	assert.False(t, v.Verify(rfcSecret, "969429"), "two steps ahead rejected")
}

func TestTOTPVerify_RejectsBadInput(t *testing.T) {
	v := NewTOTPVerifierWithClock(clockAt(59))

	t.Run("wrong code", func(t *testing.T) {
		assert.False(t, v.Verify(rfcSecret, "000000"))
	})

	t.Run("wrong length", func(t *testing.T) {
		assert.False(t, v.Verify(rfcSecret, "28708"))
		assert.False(t, v.Verify(rfcSecret, "2870823"))
		assert.False(t, v.Verify(rfcSecret, ""))
	})

	t.Run("malformed secret", func(t *testing.T) {
		assert.False(t, v.Verify("not base32 !!", "287082"))
	})
}

func TestTOTPVerify_SecretNormalization(t *testing.T) {
	v := NewTOTPVerifierWithClock(clockAt(59))

	t.Run("lowercase secret", func(t *testing.T) {
		assert.True(t, v.Verify("gezdgnbvgy3tqojqgezdgnbvgy3tqojq", "287082"))
	})

	t.Run("padded secret", func(t *testing.T) {
		assert.True(t, v.Verify(rfcSecret+"======", "287082"))
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		assert.True(t, v.Verify(" "+rfcSecret+" ", "287082"))
	})
}

// --- Static Verifier Tests ---

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{}

	assert.True(t, v.Verify("", "123456"))
	assert.True(t, v.Verify("ignored-secret", "abcdef"))
	assert.False(t, v.Verify("", "12345"))
	assert.False(t, v.Verify("", "1234567"))
	assert.False(t, v.Verify("", ""))
}
