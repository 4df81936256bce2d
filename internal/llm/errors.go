package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingCredential is returned by Generate when no API key was configured.
// It is an authentication failure and never retried.
var ErrMissingCredential = errors.New("API key not configured")

// StatusResourceExhausted is the provider status for exhausted quota
const StatusResourceExhausted = "RESOURCE_EXHAUSTED"

// APIError preserves the failure information returned by a provider
type APIError struct {
	Provider   string
	StatusCode int    // HTTP status or provider code, 0 if unknown
	Status     string // Provider status label such as RESOURCE_EXHAUSTED
	Message    string
	Err        error // Underlying SDK or transport error, if any
}

// Error implements error
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API error", e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " %s", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil && e.Message == "" {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying error
func (e *APIError) Unwrap() error {
	return e.Err
}

// quotaMarkers are matched against the error text when no typed status is available
var quotaMarkers = []string{"429", "quota", StatusResourceExhausted}

// IsQuotaError reports whether err signals rate limiting or quota exhaustion
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Status == StatusResourceExhausted {
			return true
		}
	}

	msg := err.Error()
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
