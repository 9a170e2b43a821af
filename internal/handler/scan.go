package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/trustgate/platform/internal/auth"
	"github.com/trustgate/platform/internal/classify"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/guard"
	"github.com/trustgate/platform/internal/service"
)

// ScanHandler exposes the access-attempt lifecycle: initiation, MFA step-up
// and status reads.
type ScanHandler struct {
	scanSvc *service.ScanService
	limiter *guard.RateLimiter
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanSvc *service.ScanService, limiter *guard.RateLimiter) *ScanHandler {
	return &ScanHandler{scanSvc: scanSvc, limiter: limiter}
}

type initiateRequest struct {
	ResourceID uuid.UUID `json:"resource_id"`
}

// Initiate handles POST /scans.
func (h *ScanHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var input initiateRequest
	if err := DecodeJSON(r, &input); err != nil || input.ResourceID == uuid.Nil {
		RespondValidation(w, r, "resource_id is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	role := auth.RoleFromContext(r.Context())

	scan, err := h.scanSvc.Initiate(r.Context(), userID, role, input.ResourceID, classify.FromHTTP(r))
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, scan)
}

func mfaRateKey(scanID string, userID uuid.UUID) string {
	return scanID + "|" + userID.String()
}

type verifyMFARequest struct {
	Code string `json:"code"`
}

type verifyMFAResponse struct {
	AccessGranted bool `json:"access_granted"`
}

// VerifyMFA handles POST /scans/{scanID}/mfa.
func (h *ScanHandler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	var input verifyMFARequest
	if err := DecodeJSON(r, &input); err != nil || input.Code == "" {
		RespondValidation(w, r, "code is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	// Burst damping only; the core never locks a scan out. Keyed per requester
	// so a caller who learns a scan ID cannot exhaust the owner's window.
	if !h.limiter.Allow(mfaRateKey(scanID, userID)) {
		RespondError(w, r, domain.ErrRateLimited("too many verification attempts, slow down"))
		return
	}

	_, err := h.scanSvc.VerifyMFA(r.Context(), userID, scanID, input.Code)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, verifyMFAResponse{AccessGranted: true})
}

// GetStatus handles GET /scans/{scanID}.
func (h *ScanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	userID := auth.UserIDFromContext(r.Context())

	scan, err := h.scanSvc.GetStatus(r.Context(), userID, scanID)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, scan)
}

// ListMine handles GET /scans.
func (h *ScanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	scans, err := h.scanSvc.ListMine(r.Context(), userID, 50)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"scans": scans})
}
