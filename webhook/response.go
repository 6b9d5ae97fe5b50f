package webhook

import (
	"encoding/json"
	"net/http"
)

// Code is the machine-readable error code of a response
type Code string

const (
	ValidationFailed            Code = "VALIDATION_FAILED"
	TimestampTooOld             Code = "TIMESTAMP_TOO_OLD"
	SignatureVerificationFailed Code = "SIGNATURE_VERIFICATION_FAILED"
	InvalidSecretFormat         Code = "INVALID_SECRET_FORMAT"
	MalformedEvent              Code = "MALFORMED_EVENT"
	ProcessingError             Code = "PROCESSING_ERROR"
	UnknownProvider             Code = "UNKNOWN_PROVIDER"
)

// Response is the outcome reported back to the provider.
// Status decides whether the provider retries; 2xx stops it.
type Response struct {
	Status         int      `json:"-"`
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Error          Code     `json:"error,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
	Details        []string `json:"details,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
	EventType      string   `json:"eventType,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	ProcessingTime *int64   `json:"processingTime,omitempty"` // milliseconds
}

// ErrorCode returns the error code, or "OK" for responses without one
func (r Response) ErrorCode() string {
	if r.Error == "" {
		return "OK"
	}
	return string(r.Error)
}

// Write sends the response as JSON
func (r Response) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.Status)
	return json.NewEncoder(w).Encode(r)
}

func reject(status int, code Code, message string, details ...string) Response {
	return Response{
		Status:  status,
		Success: false,
		Message: message,
		Error:   code,
		Details: details,
	}
}
