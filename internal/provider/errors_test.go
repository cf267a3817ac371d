package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "i/o timeout" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		failure Failure
		kind    Kind
		message string
	}{
		{
			name:    "rate limited",
			failure: Failure{StatusCode: 429},
			kind:    KindRateLimited,
			message: "Rate limit reached for AbuseIPDB. Please try again later.",
		},
		{
			name:    "unauthorized",
			failure: Failure{StatusCode: 401},
			kind:    KindAuthFailed,
			message: "Invalid AbuseIPDB API key or insufficient permissions.",
		},
		{
			name:    "forbidden",
			failure: Failure{StatusCode: 403},
			kind:    KindAuthFailed,
			message: "Invalid AbuseIPDB API key or insufficient permissions.",
		},
		{
			name:    "bad request with detail",
			failure: Failure{StatusCode: 400, Payload: []byte(`{"errors":[{"detail":"Bad IP","status":400}]}`)},
			kind:    KindBadRequest,
			message: "Bad IP",
		},
		{
			name:    "bad request with message",
			failure: Failure{StatusCode: 400, Payload: []byte(`{"success":false,"message":"Invalid IPv4 address."}`)},
			kind:    KindBadRequest,
			message: "Invalid IPv4 address.",
		},
		{
			name:    "bad request detail wins over message",
			failure: Failure{StatusCode: 400, Payload: []byte(`{"errors":[{"detail":"first"}],"message":"second"}`)},
			kind:    KindBadRequest,
			message: "first",
		},
		{
			name:    "bad request without payload",
			failure: Failure{StatusCode: 400},
			kind:    KindBadRequest,
			message: "Bad request to AbuseIPDB API",
		},
		{
			name:    "bad request with non-json payload",
			failure: Failure{StatusCode: 400, Payload: []byte("<html>nope</html>")},
			kind:    KindBadRequest,
			message: "Bad request to AbuseIPDB API",
		},
		{
			name:    "server error",
			failure: Failure{StatusCode: 500},
			kind:    KindProviderUnavailable,
			message: "AbuseIPDB service is currently unavailable. Please try again later.",
		},
		{
			name:    "bad gateway",
			failure: Failure{StatusCode: 502},
			kind:    KindProviderUnavailable,
			message: "AbuseIPDB service is currently unavailable. Please try again later.",
		},
		{
			name:    "context deadline",
			failure: Failure{Err: fmt.Errorf("execute request: %w", context.DeadlineExceeded)},
			kind:    KindTimeout,
			message: "Request to AbuseIPDB timed out. Please try again.",
		},
		{
			name:    "net timeout",
			failure: Failure{Err: &url.Error{Op: "Get", URL: "https://x", Err: fakeNetError{timeout: true}}},
			kind:    KindTimeout,
			message: "Request to AbuseIPDB timed out. Please try again.",
		},
		{
			name:    "unknown with error",
			failure: Failure{Err: errors.New("connection refused")},
			kind:    KindUnknown,
			message: "connection refused",
		},
		{
			name:    "unknown status",
			failure: Failure{StatusCode: 404},
			kind:    KindUnknown,
			message: "Failed to fetch data from AbuseIPDB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.failure, "AbuseIPDB")
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, "AbuseIPDB", got.Provider)
		})
	}
}

func TestClassify_StatusBeatsTransportError(t *testing.T) {
	got := Classify(Failure{StatusCode: 429, Err: context.DeadlineExceeded}, "IPQualityScore")
	assert.Equal(t, KindRateLimited, got.Kind)
}

func TestClassify_UnknownHidesRequestURL(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://ipqualityscore.com/api/json/ip/secret-key/8.8.8.8",
		Err: errors.New("dial tcp: lookup ipqualityscore.com: no such host"),
	}

	got := Classify(Failure{Err: err}, "IPQualityScore")
	assert.Equal(t, KindUnknown, got.Kind)
	assert.NotContains(t, got.Message, "secret-key")
	assert.Contains(t, got.Message, "no such host")
}

func TestError_UnwrapAndKindOf(t *testing.T) {
	cause := errors.New("boom")
	classified := Classify(Failure{Err: cause}, "AbuseIPDB")
	wrapped := fmt.Errorf("aggregate: %w", classified)

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindUnknown, KindOf(wrapped))
	assert.Equal(t, KindRateLimited, KindOf(Classify(Failure{StatusCode: 429}, "AbuseIPDB")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
