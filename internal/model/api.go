package model

import (
	"fmt"
	"time"
)

// Field length limits for record requests. These keep a single oversized
// field from bloating snapshots and report output with caller-controlled
// garbage.
const (
	MaxTitleLen     = 500
	MaxDecisionLen  = 32 * 1024 // 32 KB
	MaxRationaleLen = 64 * 1024 // 64 KB
	MaxTagLen       = 100
	MaxTags         = 50
	MaxAlternatives = 50
	MaxStakeholders = 100
)

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
)

// RecordRequest is the request body for POST /v1/decisions and the
// replacement portion of POST /v1/decisions/{id}/supersede.
type RecordRequest struct {
	Title         string        `json:"title"`
	Decision      string        `json:"decision"`
	Rationale     string        `json:"rationale"`
	DecisionMaker string        `json:"decision_maker"`
	Alternatives  []Alternative `json:"alternatives,omitempty"`
	Stakeholders  []string      `json:"stakeholders,omitempty"`
	Context       string        `json:"context,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
}

// Validate checks required fields and per-field limits.
func (r RecordRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Decision == "" {
		return fmt.Errorf("decision is required")
	}
	if r.Rationale == "" {
		return fmt.Errorf("rationale is required")
	}
	if r.DecisionMaker == "" {
		return fmt.Errorf("decision_maker is required")
	}
	if len(r.Title) > MaxTitleLen {
		return fmt.Errorf("title exceeds maximum length of %d characters", MaxTitleLen)
	}
	if len(r.Decision) > MaxDecisionLen {
		return fmt.Errorf("decision exceeds maximum length of %d bytes", MaxDecisionLen)
	}
	if len(r.Rationale) > MaxRationaleLen {
		return fmt.Errorf("rationale exceeds maximum length of %d bytes", MaxRationaleLen)
	}
	if len(r.Alternatives) > MaxAlternatives {
		return fmt.Errorf("at most %d alternatives allowed", MaxAlternatives)
	}
	if len(r.Stakeholders) > MaxStakeholders {
		return fmt.Errorf("at most %d stakeholders allowed", MaxStakeholders)
	}
	if len(r.Tags) > MaxTags {
		return fmt.Errorf("at most %d tags allowed", MaxTags)
	}
	for i, tag := range r.Tags {
		if tag == "" {
			return fmt.Errorf("tags[%d] is empty", i)
		}
		if len(tag) > MaxTagLen {
			return fmt.Errorf("tags[%d] exceeds maximum length of %d characters", i, MaxTagLen)
		}
	}
	for i, alt := range r.Alternatives {
		if alt.Description == "" {
			return fmt.Errorf("alternatives[%d].description is required", i)
		}
		if alt.RejectionReason == "" {
			return fmt.Errorf("alternatives[%d].rejection_reason is required", i)
		}
	}
	return nil
}

// OutcomeRequest is the request body for POST /v1/decisions/{id}/outcome.
type OutcomeRequest struct {
	Outcome string `json:"outcome"`
}

// ReverseRequest is the request body for POST /v1/decisions/{id}/reverse.
type ReverseRequest struct {
	Reason        string `json:"reason"`
	DecisionMaker string `json:"decision_maker"`
}

// ImportRequest is the request body for POST /v1/import.
type ImportRequest struct {
	Records []Record `json:"records"`
}

// AuthTokenRequest is the request body for POST /auth/token.
type AuthTokenRequest struct {
	APIKey string `json:"api_key"`
}

// AuthTokenResponse is the response for POST /auth/token.
type AuthTokenResponse struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Records  int    `json:"records"`
	Snapshot string `json:"snapshot,omitempty"` // "ok", "stale", or empty when disabled
	Uptime   int64  `json:"uptime_seconds"`
}
