package handler

import (
	"encoding/json"
	"net/http"

	"github.com/trustgate/platform/internal/domain"
)

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes a JSON error response. Domain errors carry their own
// status and code; anything else is masked as a plain 500. The request id is
// echoed so a denied access attempt can be matched to the audit trail.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Code: "INTERNAL_ERROR", Message: "internal server error"}
	status := http.StatusInternalServerError

	if appErr, ok := err.(*domain.AppError); ok {
		body.Code = appErr.Code
		body.Message = appErr.Message
		status = appErr.Status
	}
	if r != nil {
		body.RequestID = GetRequestID(r.Context())
	}

	RespondJSON(w, status, body)
}

// RespondValidation writes a 400 with a VALIDATION_ERROR body.
func RespondValidation(w http.ResponseWriter, r *http.Request, message string) {
	RespondError(w, r, domain.ErrValidation(message))
}

// DecodeJSON reads and decodes a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
