// Package mfa provides step-up code verification behind a single Verifier
// contract, so attempt counting and ownership semantics in the scan service
// stay identical regardless of the verification backend.
package mfa

// Verifier validates a step-up code for a user secret.
type Verifier interface {
	Verify(secret, code string) bool
}

// StaticVerifier accepts any 6-character code. It is a development stand-in
// for real OTP validation and must not be enabled in production.
type StaticVerifier struct{}

// Verify accepts any code of exactly 6 characters.
func (StaticVerifier) Verify(_, code string) bool {
	return len(code) == 6
}
