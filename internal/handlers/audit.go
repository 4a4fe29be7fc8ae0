// internal/handlers/audit.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hcert-verifier/internal/models"
	"hcert-verifier/internal/services"
	apperrors "hcert-verifier/pkg/errors"
	"hcert-verifier/pkg/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type AuditHandler struct {
	auditService services.AuditService
	logger       *zap.Logger
}

func NewAuditHandler(auditService services.AuditService, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// GetStats returns verification counts grouped by mode and outcome.
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.auditService == nil {
		utils.SendErrorResponse(w, apperrors.NewAuditDisabledError())
		return
	}

	startDate, err := parseTimeParam(r, "start")
	if err != nil {
		utils.SendErrorResponse(w, apperrors.NewValidationError("start must be an RFC3339 timestamp"))
		return
	}
	endDate, err := parseTimeParam(r, "end")
	if err != nil {
		utils.SendErrorResponse(w, apperrors.NewValidationError("end must be an RFC3339 timestamp"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.auditService.GetStats(ctx, startDate, endDate)
	if err != nil {
		h.logger.Error("Failed to load verification stats", zap.Error(err))
		utils.SendErrorResponse(w, apperrors.NewAppError(
			apperrors.ErrInternalServer,
			http.StatusInternalServerError,
			"failed to load verification stats",
		))
		return
	}
	if stats == nil {
		stats = []models.VerificationStats{}
	}

	utils.SendJSONResponse(w, http.StatusOK, models.VerificationStatsResponse{Stats: stats})
}

// GetKidHistory returns the most recent audit records for one key id.
func (h *AuditHandler) GetKidHistory(w http.ResponseWriter, r *http.Request) {
	if h.auditService == nil {
		utils.SendErrorResponse(w, apperrors.NewAuditDisabledError())
		return
	}

	kid := chi.URLParam(r, "kid")
	if kid == "" {
		utils.SendErrorResponse(w, apperrors.NewValidationError("kid is required"))
		return
	}

	limit, err := parseIntParam(r, "limit", defaultHistoryLimit)
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		utils.SendErrorResponse(w, apperrors.NewValidationError("limit must be between 1 and 100"))
		return
	}
	skip, err := parseIntParam(r, "skip", 0)
	if err != nil || skip < 0 {
		utils.SendErrorResponse(w, apperrors.NewValidationError("skip must be a non-negative integer"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	history, err := h.auditService.GetHistoryByKid(ctx, kid, limit, skip)
	if err != nil {
		h.logger.Error("Failed to load verification history", zap.String("kid", kid), zap.Error(err))
		utils.SendErrorResponse(w, apperrors.NewAppError(
			apperrors.ErrInternalServer,
			http.StatusInternalServerError,
			"failed to load verification history",
		))
		return
	}
	if history == nil {
		history = []models.VerificationLog{}
	}

	utils.SendJSONResponse(w, http.StatusOK, models.VerificationHistoryResponse{Kid: kid, History: history})
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
