package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "domainwatch/pkg/domain-errors"
)

// TestParseName_Invariants validates the trust-boundary invariant:
// "only lowercase fully-qualified domain names reach the analysis pipeline".
func TestParseName_Invariants(t *testing.T) {
	valid := []struct {
		in   string
		want Name
	}{
		{"example.com", "example.com"},
		{"Example.COM", "example.com"},
		{"sub.domain.example.co.uk", "sub.domain.example.co.uk"},
		{"xn--80ak6aa92e.com", "xn--80ak6aa92e.com"},
		{"example.xn--p1ai", "example.xn--p1ai"},
		{"a-b.example.org", "a-b.example.org"},
		{"123.example.net", "123.example.net"},
		{"münchen.de", "münchen.de"},
	}
	for _, tc := range valid {
		t.Run("accepts "+tc.in, func(t *testing.T) {
			got, err := ParseName(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := []string{
		"",
		"not a domain",
		"localhost",
		"example.com.",
		".example.com",
		"example..com",
		"-example.com",
		"example-.com",
		"exa_mple.com",
		"example.c",
		"example.123",
		"1.2.3.4",
		"example.com/path",
		"http://example.com",
		"ex*ample.com",
		strings.Repeat("a", 64) + ".com",
		strings.Repeat("abcdefghij.", 25) + "com",
		"ｅｘａｍｐｌｅ.com",
		"exa\u3000mple.com",
		"exa\ufeffmple.com",
		"exa\u200bmple.com",
		"exa\u2002mple.com",
		"exa\u00a0mple.com",
		"exa\u202fmple.com",
		"example.co\u205fm",
		" example.com",
		"example.com\t",
	}
	for _, in := range invalid {
		t.Run("rejects "+in, func(t *testing.T) {
			_, err := ParseName(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidName))
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestMustParseName(t *testing.T) {
	assert.Equal(t, Name("example.com"), MustParseName("EXAMPLE.com"))
	assert.Panics(t, func() { MustParseName("nope") })
}
