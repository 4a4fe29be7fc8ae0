// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"hcert-verifier/internal/models"
)

type VerificationLogRepository interface {
	Create(ctx context.Context, entry *models.VerificationLog) error
	GetStats(ctx context.Context, startDate, endDate *time.Time) ([]models.VerificationStats, error)
	GetHistoryByKid(ctx context.Context, kid string, limit, skip int) ([]models.VerificationLog, error)
}
