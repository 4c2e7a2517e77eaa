package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewStructureMismatch("extractor", "ad title not found")
	assert.Equal(t, "[structure_mismatch] extractor: ad title not found", err.Error())

	wrapped := NewNetwork("crawler", "search page fetch failed", fmt.Errorf("connection refused"))
	assert.Contains(t, wrapped.Error(), "connection refused")
	assert.Equal(t, "connection refused", wrapped.Unwrap().Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("crawler", "timeout", nil).IsRetryable())
	assert.True(t, NewSystemic("crawler", "endpoint unreachable", nil).IsRetryable())
	assert.False(t, NewStructureMismatch("extractor", "drift").IsRetryable())
	assert.False(t, NewMissingPrice("extractor", "no price").IsRetryable())
	assert.False(t, NewUnparsableNumeric("feature", "no digits").IsRetryable())
}

func TestIsType(t *testing.T) {
	err := NewMalformedEmbeddedData("extractor", "truncated payload", nil)
	assert.True(t, IsType(err, ErrorTypeMalformedEmbeddedData))
	assert.False(t, IsType(err, ErrorTypeMissingPrice))

	// wrapped errors are unwrapped by the probe
	wrapped := fmt.Errorf("scrape ad: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeMalformedEmbeddedData))

	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeNetwork))
}
