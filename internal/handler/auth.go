package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/trustgate/platform/internal/service"
)

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type registerResponse struct {
	*service.RegisterResult
	OTPAuthURL string `json:"otpauth_url"`
}

// Register handles POST /auth/register. The response carries the enrolled
// TOTP secret and its otpauth provisioning URI exactly once; neither is
// retrievable afterwards.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondValidation(w, r, "invalid request body")
		return
	}

	result, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, registerResponse{
		RegisterResult: result,
		OTPAuthURL:     otpauthURL(result.Email, result.MFASecret),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondValidation(w, r, "invalid request body")
		return
	}

	result, err := h.authSvc.Login(r.Context(), input)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// otpauthURL renders the provisioning URI authenticator apps import at
// enrollment (RFC 6238 defaults: SHA1, 6 digits, 30s period).
func otpauthURL(email, secret string) string {
	return fmt.Sprintf("otpauth://totp/TrustGate:%s?secret=%s&issuer=TrustGate",
		url.PathEscape(email), secret)
}
