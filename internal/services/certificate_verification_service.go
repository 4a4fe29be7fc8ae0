// internal/services/certificate_verification_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"hcert-verifier/internal/models"
)

// DefaultVerificationURL is the public verification endpoint used when no
// override is configured.
const DefaultVerificationURL = "https://vaccine.certificate.health.gov.za/ms/rs/verification/verify2_0/"

type CertificateVerificationService interface {
	// CheckFormat runs the local checks only.
	CheckFormat(raw string) models.VerificationResult
	// VerifyCertificate runs the local checks and, if they pass, confirms the
	// certificate with the remote verification service.
	VerifyCertificate(ctx context.Context, raw string, opts *models.VerifyOptions) models.VerificationResult
}

type certificateVerificationService struct {
	httpClient *http.Client
	apiURL     string
	logger     *zap.Logger
}

type verifyRequest struct {
	Kid  string `json:"kid"`
	Hash string `json:"hash"`
}

// NewCertificateVerificationService builds the service. An empty apiURL
// falls back to DefaultVerificationURL; a nil client to http.DefaultClient.
func NewCertificateVerificationService(httpClient *http.Client, apiURL string, logger *zap.Logger) CertificateVerificationService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiURL == "" {
		apiURL = DefaultVerificationURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &certificateVerificationService{
		httpClient: httpClient,
		apiURL:     apiURL,
		logger:     logger,
	}
}

func (s *certificateVerificationService) CheckFormat(raw string) models.VerificationResult {
	return CheckCertFormat(raw)
}

func (s *certificateVerificationService) VerifyCertificate(ctx context.Context, raw string, opts *models.VerifyOptions) models.VerificationResult {
	validity := CheckCertFormat(raw)
	if !validity.Valid {
		s.logger.Debug("Certificate failed format check", zap.Stringer("reason", validity.Reason))
		return validity
	}

	endpoint := s.apiURL
	if opts != nil && opts.EndpointURL != "" {
		endpoint = opts.EndpointURL
	}

	kid := validity.Payload.Kid()
	jsonData, err := json.Marshal(verifyRequest{Kid: kid, Hash: validity.Payload.Hash()})
	if err != nil {
		return models.NewFailure(models.ErrAPIBadResponse)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		s.logger.Warn("Failed to create verification request", zap.String("endpoint", endpoint), zap.Error(err))
		return models.NewFailure(models.ErrAPIBadResponse)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	s.logger.Debug("Calling certificate verification API", zap.String("endpoint", endpoint), zap.String("kid", kid))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		s.logger.Warn("Certificate verification API call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return models.NewFailure(models.ErrAPIBadResponse)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("Certificate verification API returned non-success status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return models.NewFailure(models.ErrAPIBadResponse)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn("Failed to read verification API response", zap.Error(err))
		return models.NewFailure(models.ErrAPIBadJSON)
	}

	var apiResponse any
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		s.logger.Warn("Failed to parse verification API response", zap.Int("size", len(body)), zap.Error(err))
		return models.NewFailure(models.ErrAPIBadJSON)
	}

	if fields, ok := apiResponse.(map[string]any); ok {
		if isValid, ok := fields["isValid"].(bool); ok && isValid {
			s.logger.Debug("Certificate confirmed by verification API", zap.String("kid", kid))
			return validity
		}
	}

	s.logger.Info("Verification API rejected certificate", zap.String("kid", kid))
	return models.NewFailure(models.ErrAPINotValid)
}
