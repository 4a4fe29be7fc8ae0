// internal/services/audit_service.go
package services

import (
	"context"
	"time"

	"hcert-verifier/internal/models"
	"hcert-verifier/internal/repository"
)

type AuditService interface {
	TrackVerification(ctx context.Context, req *models.VerificationTrackingRequest) error
	GetStats(ctx context.Context, startDate, endDate *time.Time) ([]models.VerificationStats, error)
	GetHistoryByKid(ctx context.Context, kid string, limit, skip int) ([]models.VerificationLog, error)
}

type auditService struct {
	logRepo repository.VerificationLogRepository
}

func NewAuditService(logRepo repository.VerificationLogRepository) AuditService {
	return &auditService{
		logRepo: logRepo,
	}
}

func (s *auditService) TrackVerification(ctx context.Context, req *models.VerificationTrackingRequest) error {
	entry := &models.VerificationLog{
		Mode:        req.Mode,
		Kid:         req.Kid,
		Valid:       req.Result.Valid,
		RequestID:   req.RequestID,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		ProcessTime: req.ProcessTime,
	}
	if !req.Result.Valid {
		entry.ReasonCode = int(req.Result.Reason)
		entry.ReasonName = req.Result.Reason.String()
	}
	if entry.Kid == "" && req.Result.Valid {
		entry.Kid = req.Result.Payload.Kid()
	}

	return s.logRepo.Create(ctx, entry)
}

func (s *auditService) GetStats(ctx context.Context, startDate, endDate *time.Time) ([]models.VerificationStats, error) {
	return s.logRepo.GetStats(ctx, startDate, endDate)
}

func (s *auditService) GetHistoryByKid(ctx context.Context, kid string, limit, skip int) ([]models.VerificationLog, error) {
	return s.logRepo.GetHistoryByKid(ctx, kid, limit, skip)
}
