// internal/models/verification.go
package models

import (
	"encoding/json"
	"fmt"
)

// ErrorKind identifies why a certificate failed verification. The numeric
// values are part of the public contract and must not be renumbered.
type ErrorKind int

const (
	ErrInvalidJSON    ErrorKind = 2
	ErrMissingField   ErrorKind = 3
	ErrInvalidHash    ErrorKind = 4
	ErrCertFormat     ErrorKind = 5
	ErrAPIBadResponse ErrorKind = 6
	ErrAPIBadJSON     ErrorKind = 7
	ErrAPINotValid    ErrorKind = 8
)

var errorKindNames = map[ErrorKind]string{
	ErrInvalidJSON:    "INVALID_JSON",
	ErrMissingField:   "MISSING_FIELD",
	ErrInvalidHash:    "INVALID_HASH",
	ErrCertFormat:     "CERT_FORMAT",
	ErrAPIBadResponse: "API_BAD_RESPONSE",
	ErrAPIBadJSON:     "API_BAD_JSON",
	ErrAPINotValid:    "API_NOT_VALID",
}

var errorKindMessages = map[ErrorKind]string{
	ErrInvalidJSON:    "QR code content is not valid JSON",
	ErrMissingField:   "QR code is missing a required field",
	ErrInvalidHash:    "QR code integrity hash does not match its contents",
	ErrCertFormat:     "embedded certificate is not Base64-encoded JSON",
	ErrAPIBadResponse: "verification service could not be reached or returned an error status",
	ErrAPIBadJSON:     "verification service returned a malformed response",
	ErrAPINotValid:    "verification service reported the certificate as not valid",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Message returns a human readable description of the failure.
func (k ErrorKind) Message() string {
	if msg, ok := errorKindMessages[k]; ok {
		return msg
	}
	return "unknown verification error"
}

// Remote reports whether the failure came from the online confirmation step.
func (k ErrorKind) Remote() bool {
	return k == ErrAPIBadResponse || k == ErrAPIBadJSON || k == ErrAPINotValid
}

// RequiredFields lists the payload keys that must be strings, in the order
// they are joined to compute the integrity hash.
var RequiredFields = []string{"alg", "kid", "iss", "iat", "exp", "hcert", "hashalg"}

// Payload is the decoded QR code object.
type Payload map[string]any

// StringField returns the value stored under key when it is present and a
// JSON string.
func (p Payload) StringField(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (p Payload) Kid() string {
	s, _ := p.StringField("kid")
	return s
}

func (p Payload) Hash() string {
	s, _ := p.StringField("hash")
	return s
}

// VerificationResult is either a success carrying the payload and decoded
// certificate, or a failure carrying a Reason. Check Valid before reading
// the other fields.
type VerificationResult struct {
	Valid       bool      `json:"valid"`
	Payload     Payload   `json:"qrcode"`
	Certificate any       `json:"cert"`
	Reason      ErrorKind `json:"reason"`
}

// MarshalJSON writes a success as valid, qrcode and cert (cert may be null)
// and a failure as valid and reason only.
func (r VerificationResult) MarshalJSON() ([]byte, error) {
	if r.Valid {
		return json.Marshal(struct {
			Valid       bool    `json:"valid"`
			Payload     Payload `json:"qrcode"`
			Certificate any     `json:"cert"`
		}{true, r.Payload, r.Certificate})
	}
	return json.Marshal(struct {
		Valid  bool      `json:"valid"`
		Reason ErrorKind `json:"reason"`
	}{false, r.Reason})
}

func NewSuccess(payload Payload, certificate any) VerificationResult {
	return VerificationResult{
		Valid:       true,
		Payload:     payload,
		Certificate: certificate,
	}
}

func NewFailure(reason ErrorKind) VerificationResult {
	return VerificationResult{Reason: reason}
}

// VerifyOptions tunes a single remote verification.
type VerifyOptions struct {
	// EndpointURL overrides the verification service target when non-empty.
	EndpointURL string
}
