package providers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{http.StatusTooManyRequests, ErrorRateLimited, true},
		{http.StatusUnauthorized, ErrorAuthentication, false},
		{http.StatusForbidden, ErrorAuthentication, false},
		{http.StatusNotFound, ErrorNotFound, false},
		{http.StatusGatewayTimeout, ErrorTimeout, false},
		{http.StatusInternalServerError, ErrorProviderOutage, false},
		{http.StatusBadGateway, ErrorProviderOutage, false},
		{http.StatusBadRequest, ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus("virustotal", tt.status)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, "virustotal", err.ProviderID)
		})
	}
}

func TestCategoryHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", FromStatus("virustotal", http.StatusTooManyRequests))

	assert.True(t, IsRateLimited(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, ErrorRateLimited, GetCategory(wrapped))

	plain := errors.New("boom")
	assert.False(t, IsRateLimited(plain))
	assert.Equal(t, ErrorInternal, GetCategory(plain))
}

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderError(ErrorProviderOutage, "whois", "request failed", errors.New("dial tcp"))
	assert.Equal(t, "provider whois [provider_outage]: request failed: dial tcp", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "dial tcp")
}

func TestOutcomeVariants(t *testing.T) {
	ok := Succeeded(42)
	assert.False(t, ok.Degraded)
	assert.NoError(t, ok.Err)
	assert.Equal(t, "success", ok.Variant())

	cause := errors.New("timeout")
	fb := Fallback(0, cause)
	assert.True(t, fb.Degraded)
	assert.ErrorIs(t, fb.Err, cause)
	assert.Equal(t, "degraded", fb.Variant())
}
