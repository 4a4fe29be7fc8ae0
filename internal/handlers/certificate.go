// internal/handlers/certificate.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hcert-verifier/internal/models"
	"hcert-verifier/internal/services"
	apperrors "hcert-verifier/pkg/errors"
	"hcert-verifier/pkg/utils"
)

type CertificateHandler struct {
	verificationService services.CertificateVerificationService
	batchService        services.BatchVerificationService
	auditService        services.AuditService
	batchMaxItems       int
	logger              *zap.Logger
}

// NewCertificateHandler wires the certificate endpoints. auditService may be
// nil, in which case nothing is recorded.
func NewCertificateHandler(
	verificationService services.CertificateVerificationService,
	batchService services.BatchVerificationService,
	auditService services.AuditService,
	batchMaxItems int,
	logger *zap.Logger,
) *CertificateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateHandler{
		verificationService: verificationService,
		batchService:        batchService,
		auditService:        auditService,
		batchMaxItems:       batchMaxItems,
		logger:              logger,
	}
}

// CheckCertificate runs the offline format and integrity checks.
func (h *CertificateHandler) CheckCertificate(w http.ResponseWriter, r *http.Request) {
	h.handleSingle(w, r, models.ModeCheck)
}

// VerifyCertificate runs the offline checks and confirms the certificate
// with the remote verification service.
func (h *CertificateHandler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	h.handleSingle(w, r, models.ModeVerify)
}

func (h *CertificateHandler) handleSingle(w http.ResponseWriter, r *http.Request, mode string) {
	startTime := time.Now()

	var req models.CertificateRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.SendErrorResponse(w, err)
		return
	}

	if err := req.Validate(); err != nil {
		utils.SendErrorResponse(w, apperrors.NewValidationError(err.Error()))
		return
	}

	var result models.VerificationResult
	if mode == models.ModeVerify {
		result = h.verificationService.VerifyCertificate(r.Context(), req.QRCode, nil)
	} else {
		result = h.verificationService.CheckFormat(req.QRCode)
	}

	h.trackVerification(r, mode, req.QRCode, result, startTime)

	logFn := h.logger.Debug
	if !result.Valid && result.Reason.Remote() {
		logFn = h.logger.Warn
	}
	logFn("Certificate processed",
		zap.String("mode", mode),
		zap.Bool("valid", result.Valid),
		zap.Duration("elapsed", time.Since(startTime)))

	utils.SendJSONResponse(w, http.StatusOK, newCertificateResponse(result, time.Now().UTC()))
}

// VerifyBatch verifies several QR payloads concurrently.
func (h *CertificateHandler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var req models.BatchCertificateRequest
	if err := utils.DecodeJSONBody(r, &req); err != nil {
		utils.SendErrorResponse(w, err)
		return
	}

	if err := req.Validate(h.batchMaxItems); err != nil {
		utils.SendErrorResponse(w, apperrors.NewValidationError(err.Error()))
		return
	}

	results := h.batchService.VerifyBatch(r.Context(), req.QRCodes)

	processedAt := time.Now().UTC()
	response := &models.BatchCertificateResponse{
		Message:     "Batch verification completed",
		Total:       len(results),
		Results:     make([]models.CertificateResponse, 0, len(results)),
		ProcessedAt: processedAt,
	}
	remoteFailures := 0
	for i, result := range results {
		if result.Valid {
			response.ValidCount++
		} else if result.Reason.Remote() {
			remoteFailures++
		}
		h.trackVerification(r, models.ModeVerify, req.QRCodes[i], result, startTime)
		response.Results = append(response.Results, newCertificateResponse(result, processedAt))
	}

	h.logger.Info("Batch verification completed",
		zap.Int("total", response.Total),
		zap.Int("valid", response.ValidCount),
		zap.Int("remote_failures", remoteFailures),
		zap.Duration("elapsed", time.Since(startTime)))

	utils.SendJSONResponse(w, http.StatusOK, response)
}

func newCertificateResponse(result models.VerificationResult, processedAt time.Time) models.CertificateResponse {
	response := models.CertificateResponse{
		Message:        "Certificate is valid",
		VerificationID: uuid.NewString(),
		Result:         result,
		ProcessedAt:    processedAt,
	}
	if !result.Valid {
		response.Message = "Certificate is not valid"
		response.ReasonName = result.Reason.String()
		response.ReasonMessage = result.Reason.Message()
	}
	return response
}

func (h *CertificateHandler) trackVerification(r *http.Request, mode, raw string, result models.VerificationResult, startTime time.Time) {
	if h.auditService == nil {
		return
	}

	req := &models.VerificationTrackingRequest{
		Mode:        mode,
		Kid:         payloadKid(raw),
		Result:      result,
		RequestID:   chimiddleware.GetReqID(r.Context()),
		IPAddress:   getClientIP(r),
		UserAgent:   r.UserAgent(),
		ProcessTime: time.Since(startTime).Milliseconds(),
	}

	// Track asynchronously to not block the response
	go func() {
		trackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.auditService.TrackVerification(trackCtx, req); err != nil {
			h.logger.Warn("Failed to record verification", zap.String("mode", mode), zap.Error(err))
		}
	}()
}

// payloadKid returns the kid of a raw payload that parses to an object with a
// string kid, whether or not verification succeeded.
func payloadKid(raw string) string {
	var payload models.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ""
	}
	return payload.Kid()
}

func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, get the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
