package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
)

// Kind is the classified cause of a failed provider call
type Kind string

const (
	KindRateLimited         Kind = "rate_limited"
	KindAuthFailed          Kind = "auth_failed"
	KindBadRequest          Kind = "bad_request"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindTimeout             Kind = "timeout"
	KindUnknown             Kind = "unknown"
)

// Error is a classified provider failure. Message is safe to show to end users
// for every kind except KindAuthFailed, which callers must mask.
type Error struct {
	Kind       Kind
	Provider   string
	Message    string
	StatusCode int   // 0 when no HTTP response was received
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Failure describes a failed call before classification
type Failure struct {
	StatusCode int    // HTTP status, 0 for network-level failures
	Payload    []byte // response body, may be empty
	Err        error  // transport error, nil when a response was received
}

// errorPayload covers the error shapes both providers emit:
// AbuseIPDB {"errors":[{"detail":...}]} and IPQualityScore {"message":...}
type errorPayload struct {
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
	Message string `json:"message"`
}

// Classify maps a failed call to a classified error. First match wins.
func Classify(f Failure, providerName string) *Error {
	e := &Error{
		Provider:   providerName,
		StatusCode: f.StatusCode,
		Err:        f.Err,
	}

	switch {
	case f.StatusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = fmt.Sprintf("Rate limit reached for %s. Please try again later.", providerName)

	case f.StatusCode == http.StatusUnauthorized || f.StatusCode == http.StatusForbidden:
		e.Kind = KindAuthFailed
		e.Message = fmt.Sprintf("Invalid %s API key or insufficient permissions.", providerName)

	case f.StatusCode == http.StatusBadRequest:
		e.Kind = KindBadRequest
		e.Message = payloadMessage(f.Payload)
		if e.Message == "" {
			e.Message = fmt.Sprintf("Bad request to %s API", providerName)
		}

	case f.StatusCode >= 500:
		e.Kind = KindProviderUnavailable
		e.Message = fmt.Sprintf("%s service is currently unavailable. Please try again later.", providerName)

	case isTimeout(f.Err):
		e.Kind = KindTimeout
		e.Message = fmt.Sprintf("Request to %s timed out. Please try again.", providerName)

	default:
		e.Kind = KindUnknown
		e.Message = failureMessage(f.Err)
		if e.Message == "" {
			e.Message = fmt.Sprintf("Failed to fetch data from %s", providerName)
		}
	}

	return e
}

// payloadMessage extracts errors[0].detail, falling back to message
func payloadMessage(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var p errorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}
	if len(p.Errors) > 0 && p.Errors[0].Detail != "" {
		return p.Errors[0].Detail
	}
	return p.Message
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// failureMessage returns the transport error text without the request URL.
// IPQualityScore carries the API key in the path, so *url.Error is unwrapped.
func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// KindOf returns the kind of a classified error, or KindUnknown for anything else
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
