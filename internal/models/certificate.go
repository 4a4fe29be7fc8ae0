// internal/models/certificate.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CertificateRequest carries the raw text scanned from a QR code.
type CertificateRequest struct {
	QRCode string `json:"qrcode"`
}

func (r *CertificateRequest) Validate() error {
	if strings.TrimSpace(r.QRCode) == "" {
		return errors.New("qrcode is required and cannot be empty")
	}
	return nil
}

type BatchCertificateRequest struct {
	QRCodes []string `json:"qrcodes"`
}

func (r *BatchCertificateRequest) Validate(maxItems int) error {
	if len(r.QRCodes) == 0 {
		return errors.New("qrcodes array cannot be empty")
	}
	if len(r.QRCodes) > maxItems {
		return fmt.Errorf("qrcodes array cannot contain more than %d items", maxItems)
	}
	for i, qr := range r.QRCodes {
		if strings.TrimSpace(qr) == "" {
			return fmt.Errorf("qrcodes[%d] cannot be empty", i)
		}
	}
	return nil
}

// CertificateResponse is returned for a single check or verification.
type CertificateResponse struct {
	Message        string             `json:"message"`
	VerificationID string             `json:"verification_id"`
	Result         VerificationResult `json:"result"`
	ReasonName     string             `json:"reason_name,omitempty"`
	ReasonMessage  string             `json:"reason_message,omitempty"`
	ProcessedAt    time.Time          `json:"processed_at"`
}

type BatchCertificateResponse struct {
	Message     string                `json:"message"`
	Total       int                   `json:"total"`
	ValidCount  int                   `json:"valid_count"`
	Results     []CertificateResponse `json:"results"`
	ProcessedAt time.Time             `json:"processed_at"`
}

type VerificationStatsResponse struct {
	Stats []VerificationStats `json:"stats"`
}

type VerificationHistoryResponse struct {
	Kid     string            `json:"kid"`
	History []VerificationLog `json:"history"`
}
