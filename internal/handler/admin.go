package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trustgate/platform/internal/auth"
	"github.com/trustgate/platform/internal/domain"
	"github.com/trustgate/platform/internal/repository"
	"github.com/trustgate/platform/internal/service"
)

// PolicyAdminHandler manages scoring policies.
type PolicyAdminHandler struct {
	policySvc *service.PolicyService
}

// NewPolicyAdminHandler creates a new PolicyAdminHandler.
func NewPolicyAdminHandler(policySvc *service.PolicyService) *PolicyAdminHandler {
	return &PolicyAdminHandler{policySvc: policySvc}
}

// Create handles POST /admin/policies.
func (h *PolicyAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondValidation(w, r, "invalid request body")
		return
	}
	input.CreatedBy = auth.SubjectFromContext(r.Context())

	policy, err := h.policySvc.Create(r.Context(), input)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, policy)
}

// List handles GET /admin/policies.
func (h *PolicyAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policySvc.List(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"policies": policies})
}

// Get handles GET /admin/policies/{id}.
func (h *PolicyAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondValidation(w, r, "invalid policy id")
		return
	}

	policy, err := h.policySvc.Get(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, policy)
}

// Activate handles POST /admin/policies/{id}/activate.
func (h *PolicyAdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondValidation(w, r, "invalid policy id")
		return
	}

	policy, err := h.policySvc.Activate(r.Context(), id, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, policy)
}

// DirectoryHandler exposes the resource directory and device registry views.
type DirectoryHandler struct {
	pool      *pgxpool.Pool
	resources repository.ResourceRepository
	devices   repository.DeviceRepository
	audits    repository.AuditRepository
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(pool *pgxpool.Pool, resources repository.ResourceRepository, devices repository.DeviceRepository, audits repository.AuditRepository) *DirectoryHandler {
	return &DirectoryHandler{pool: pool, resources: resources, devices: devices, audits: audits}
}

// ListResources handles GET /resources (any authenticated user).
func (h *DirectoryHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.List(r.Context(), h.pool)
	if err != nil {
		RespondError(w, r, domain.ErrInternal("list resources", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

type createResourceRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Sensitivity  domain.Sensitivity `json:"sensitivity"`
	MFARequired  bool               `json:"mfa_required"`
	AllowedRoles []string           `json:"allowed_roles"`
}

// CreateResource handles POST /admin/resources.
func (h *DirectoryHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var input createResourceRequest
	if err := DecodeJSON(r, &input); err != nil {
		RespondValidation(w, r, "invalid request body")
		return
	}
	if input.Name == "" {
		RespondValidation(w, r, "resource name is required")
		return
	}
	if err := domain.ValidateSensitivity(input.Sensitivity); err != nil {
		RespondValidation(w, r, err.Error())
		return
	}

	resource := &domain.Resource{
		ID:           uuid.New(),
		Name:         input.Name,
		Description:  input.Description,
		Sensitivity:  input.Sensitivity,
		MFARequired:  input.MFARequired,
		AllowedRoles: input.AllowedRoles,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.resources.Insert(r.Context(), h.pool, resource); err != nil {
		RespondError(w, r, domain.ErrInternal("insert resource", err))
		return
	}
	RespondJSON(w, http.StatusCreated, resource)
}

// ListDevices handles GET /admin/devices?user_id=.
func (h *DirectoryHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		RespondValidation(w, r, "user_id query parameter is required")
		return
	}

	devices, err := h.devices.ListByUser(r.Context(), h.pool, userID)
	if err != nil {
		RespondError(w, r, domain.ErrInternal("list devices", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

type setTrustLevelRequest struct {
	TrustLevel domain.TrustLevel `json:"trust_level"`
}

// SetDeviceTrustLevel handles PATCH /admin/devices/{id}/trust.
func (h *DirectoryHandler) SetDeviceTrustLevel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondValidation(w, r, "invalid device id")
		return
	}

	var input setTrustLevelRequest
	if err := DecodeJSON(r, &input); err != nil {
		RespondValidation(w, r, "invalid request body")
		return
	}
	switch input.TrustLevel {
	case domain.TrustTrusted, domain.TrustUnverified, domain.TrustCompromised:
	default:
		RespondValidation(w, r, "invalid trust level")
		return
	}

	if err := h.devices.SetTrustLevel(r.Context(), h.pool, id, input.TrustLevel); err != nil {
		RespondError(w, r, domain.ErrNotFound("device", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ListAuditEvents handles GET /admin/audit.
func (h *DirectoryHandler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.audits.List(r.Context(), h.pool, 100)
	if err != nil {
		RespondError(w, r, domain.ErrInternal("list audit events", err))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
