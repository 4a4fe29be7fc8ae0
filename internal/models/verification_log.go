// internal/models/verification_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ModeCheck  = "check"
	ModeVerify = "verify"
)

// VerificationLog is one audited verification call. The raw payload, its
// hash and the decoded certificate are never stored.
type VerificationLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Mode        string             `bson:"mode" json:"mode"`
	Kid         string             `bson:"kid,omitempty" json:"kid,omitempty"`
	Valid       bool               `bson:"valid" json:"valid"`
	ReasonCode  int                `bson:"reason_code,omitempty" json:"reason_code,omitempty"`
	ReasonName  string             `bson:"reason_name,omitempty" json:"reason_name,omitempty"`
	RequestID   string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	IPAddress   string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent   string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	ProcessTime int64              `bson:"process_time_ms" json:"process_time_ms"` // Processing time in milliseconds
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// VerificationStats aggregates audit records per mode and outcome.
type VerificationStats struct {
	Mode       string  `bson:"mode" json:"mode"`
	Valid      bool    `bson:"valid" json:"valid"`
	ReasonName string  `bson:"reason_name,omitempty" json:"reason_name,omitempty"`
	TotalCalls int     `bson:"total_calls" json:"total_calls"`
	AvgTimeMs  float64 `bson:"avg_process_time_ms" json:"avg_process_time_ms"`
}

// VerificationTrackingRequest for recording a verification call
type VerificationTrackingRequest struct {
	Mode        string
	Result      VerificationResult
	Kid         string
	RequestID   string
	IPAddress   string
	UserAgent   string
	ProcessTime int64
}
