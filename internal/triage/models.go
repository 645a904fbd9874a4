// Package triage turns raw support requests into classified, diagnosed, and
// (when safe) executed remediation actions.
package triage

import (
	"time"

	dErrors "supportops/pkg/domain-errors"
)

// Metadata is optional request context supplied by the reporting channel.
type Metadata struct {
	ProductVersion string         `json:"product_version,omitempty"`
	ProductName    string         `json:"product_name,omitempty"`
	Region         string         `json:"region,omitempty"`
	Timestamp      *time.Time     `json:"timestamp,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// Request is one inbound support request.
type Request struct {
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Channel   string    `json:"channel"`
	Message   string    `json:"message"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// Validate rejects requests missing required identity or content fields.
func (r *Request) Validate() error {
	switch {
	case r.RequestID == "":
		return dErrors.New(dErrors.CodeBadRequest, "request_id is required")
	case r.UserID == "":
		return dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	case r.Channel == "":
		return dErrors.New(dErrors.CodeBadRequest, "channel is required")
	case r.Message == "":
		return dErrors.New(dErrors.CodeBadRequest, "message is required")
	}
	return nil
}
