// Package domain holds the value types that cross trust boundaries.
package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/miekg/dns"

	dErrors "domainwatch/pkg/domain-errors"
)

const (
	maxNameLength  = 253
	maxLabelLength = 63
)

// ErrInvalidName is wrapped by every ParseName rejection.
var ErrInvalidName = errors.New("invalid domain name")

// Name is a normalized (lowercase) fully-qualified domain name. The zero value is
// not a valid name; obtain one through ParseName.
type Name string

func (n Name) String() string {
	return string(n)
}

// ParseName lowercases raw and checks fully-qualified-domain-name syntax: at least
// two labels, no trailing dot, an alphabetic or punycode TLD, and labels of letters,
// digits and inner hyphens only.
func ParseName(raw string) (Name, error) {
	s := strings.ToLower(raw)
	if !isFQDN(s) {
		return "", dErrors.Wrap(ErrInvalidName, dErrors.CodeBadRequest, "invalid domain")
	}
	return Name(s), nil
}

// MustParseName is for tests and constants.
func MustParseName(raw string) Name {
	n, err := ParseName(raw)
	if err != nil {
		panic(err)
	}
	return n
}

func isFQDN(s string) bool {
	if s == "" || len(s) > maxNameLength || strings.HasSuffix(s, ".") {
		return false
	}
	if !utf8.ValidString(s) || strings.ContainsFunc(s, isSpaceLike) {
		return false
	}
	if _, ok := dns.IsDomainName(s); !ok {
		return false
	}
	labels := dns.SplitDomainName(s)
	if len(labels) < 2 {
		return false
	}
	if !validTLD(labels[len(labels)-1]) {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		case r >= 0xFF01 && r <= 0xFF5E:
			// fullwidth forms
			return false
		case r >= 0xA1 && r <= 0xFFFF:
		default:
			return false
		}
	}
	return true
}

// isSpaceLike covers Unicode whitespace plus the zero-width and tag spaces
// that unicode.IsSpace does not classify.
func isSpaceLike(r rune) bool {
	switch {
	case unicode.IsSpace(r):
		return true
	case r >= 0x2002 && r <= 0x200B, r == 0x202F, r == 0x205F, r == 0x3000, r == 0xFEFF, r == 0xE0020:
		return true
	}
	return false
}

func validTLD(tld string) bool {
	if isDigits(tld) {
		return false
	}
	if rest, ok := strings.CutPrefix(tld, "xn"); ok && len(rest) >= 2 && isPunycodeTail(rest) {
		return true
	}
	if utf8.RuneCountInString(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !isTLDLetter(r) {
			return false
		}
	}
	return true
}

func isTLDLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 0xA1 && r <= 0xA8,
		r >= 0xAA && r <= 0xD7FF,
		r >= 0xF900 && r <= 0xFDCF,
		r >= 0xFDF0 && r <= 0xFFEF:
		return true
	}
	return false
}

func isPunycodeTail(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
