// internal/services/format_checker.go
package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"hcert-verifier/internal/models"
)

const hashFieldSeparator = "--"

// CheckCertFormat parses a raw QR payload and checks its structure, its
// integrity hash and the embedded certificate. It performs no I/O and is
// safe for concurrent use.
func CheckCertFormat(raw string) models.VerificationResult {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return models.NewFailure(models.ErrInvalidJSON)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return models.NewFailure(models.ErrMissingField)
	}
	payload := models.Payload(obj)

	expected, ok := IntegrityHash(payload)
	if !ok {
		return models.NewFailure(models.ErrMissingField)
	}

	stored, ok := payload.StringField("hash")
	if !ok || stored != expected {
		return models.NewFailure(models.ErrInvalidHash)
	}

	hcert, _ := payload.StringField("hcert")
	cert, ok := decodeCertificate(hcert)
	if !ok {
		return models.NewFailure(models.ErrCertFormat)
	}

	return models.NewSuccess(payload, cert)
}

// IntegrityHash computes the lowercase hex SHA-256 of the required fields
// joined by "--". It returns false if any required field is missing or is
// not a string.
func IntegrityHash(payload models.Payload) (string, bool) {
	values := make([]string, 0, len(models.RequiredFields))
	for _, key := range models.RequiredFields {
		v, ok := payload.StringField(key)
		if !ok {
			return "", false
		}
		values = append(values, v)
	}

	sum := sha256.Sum256([]byte(strings.Join(values, hashFieldSeparator)))
	return hex.EncodeToString(sum[:]), true
}

// decodeCertificate accepts padded and unpadded Base64. Anything from the
// first '=' on is ignored.
func decodeCertificate(hcert string) (any, bool) {
	if idx := strings.IndexByte(hcert, '='); idx != -1 {
		hcert = hcert[:idx]
	}
	data, err := base64.RawStdEncoding.DecodeString(hcert)
	if err != nil {
		return nil, false
	}
	if !utf8.Valid(data) {
		return nil, false
	}

	var cert any
	if err := json.Unmarshal(data, &cert); err != nil {
		return nil, false
	}
	return cert, true
}
