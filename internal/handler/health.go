package handler

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/trustgate/platform/internal/infra"
)

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// HealthHandler reports service liveness and database reachability.
func HealthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", Service: "trustgate", Database: "up"}

		if err := infra.HealthCheck(r.Context(), pool); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "down"
			resp.Error = err.Error()
			RespondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		RespondJSON(w, http.StatusOK, resp)
	}
}
