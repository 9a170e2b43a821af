package mfa

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	totpDigits = 6
	totpStep   = 30 * time.Second
	// totpSkew is how many adjacent time steps are accepted on either side,
	// tolerating clock drift between client and server.
	totpSkew = 1
)

// TOTPVerifier validates RFC 6238 time-based one-time passwords (SHA-1,
// 30 second step, 6 digits). Secrets are base32 encoded, unpadded or padded.
type TOTPVerifier struct {
	now func() time.Time
}

// NewTOTPVerifier creates a verifier using the wall clock.
func NewTOTPVerifier() *TOTPVerifier {
	return &TOTPVerifier{now: time.Now}
}

// NewTOTPVerifierWithClock creates a verifier with a fixed clock source.
func NewTOTPVerifierWithClock(now func() time.Time) *TOTPVerifier {
	return &TOTPVerifier{now: now}
}

// Verify checks the code against the current time step and its neighbors.
func (v *TOTPVerifier) Verify(secret, code string) bool {
	if len(code) != totpDigits {
		return false
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	counter := v.now().Unix() / int64(totpStep.Seconds())
	for i := int64(-totpSkew); i <= totpSkew; i++ {
		if counter+i < 0 {
			continue
		}
		expected := hotp(key, uint64(counter+i))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
}

// hotp computes the RFC 4226 truncated HMAC-SHA1 value for a counter.
func hotp(key []byte, counter uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", totpDigits, value%1_000_000)
}
