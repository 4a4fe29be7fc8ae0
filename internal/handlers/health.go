// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"hcert-verifier/internal/models"
	"hcert-verifier/pkg/utils"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

// NewHealthHandler accepts a nil db when the audit log is disabled.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status:   "healthy",
		Message:  "Certificate verification service is running",
		AuditLog: "disabled",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			response.Status = "degraded"
			response.AuditLog = "unreachable"
			utils.SendJSONResponse(w, http.StatusServiceUnavailable, response)
			return
		}
		response.AuditLog = "connected"
	}

	utils.SendJSONResponse(w, http.StatusOK, response)
}
