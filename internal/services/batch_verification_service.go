// internal/services/batch_verification_service.go
package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hcert-verifier/internal/models"
)

type BatchVerificationService interface {
	// VerifyBatch verifies every payload independently and returns the
	// results in input order.
	VerifyBatch(ctx context.Context, raws []string) []models.VerificationResult
}

type batchVerificationService struct {
	verifier    CertificateVerificationService
	concurrency int
}

func NewBatchVerificationService(verifier CertificateVerificationService, concurrency int) BatchVerificationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &batchVerificationService{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

func (s *batchVerificationService) VerifyBatch(ctx context.Context, raws []string) []models.VerificationResult {
	results := make([]models.VerificationResult, len(raws))

	// Failures are result values; goroutines never return an error.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, raw := range raws {
		g.Go(func() error {
			results[i] = s.verifier.VerifyCertificate(ctx, raw, nil)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
