// Package registration provides normalization and validation of UK vehicle
// registration numbers. Registrations are normalized before any lookup so
// that the same plate expressed differently produces the same cache key.
// This is the single gate all other components trust: anything that passes
// Validate is safe to use as a store key or request path segment.
package registration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonesrussell/regcheck/internal/domain"
)

// minLength is the shortest input accepted after normalization. UK plates
// never carry fewer than three characters in any issued series.
const minLength = 3

// platePatterns lists the accepted UK plate shapes, checked in order.
// A normalized registration is valid when any one matches.
var platePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{3}$`), // current: AB12 CDE
	regexp.MustCompile(`^[A-Z][0-9]{1,3}[A-Z]{3}$`),  // prefix: A123 BCD
	regexp.MustCompile(`^[A-Z]{3}[0-9]{1,3}[A-Z]$`),  // suffix: ABC 123D
	regexp.MustCompile(`^[0-9]{1,4}[A-Z]{1,3}$`),     // dateless: 1234 AB
	regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,4}$`),     // early: AB 1234
}

// Normalize returns the canonical form of a raw registration: uppercase
// with every non-alphanumeric character removed. Normalize is idempotent
// and performs no validation.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Validate checks a normalized registration against the known UK plate
// shapes. It returns nil for a match and an error wrapping
// domain.ErrInvalidFormat otherwise.
func Validate(normalized string) error {
	if normalized == "" {
		return fmt.Errorf("%w: empty registration", domain.ErrInvalidFormat)
	}
	if len(normalized) < minLength {
		return fmt.Errorf("%w: %q is too short", domain.ErrInvalidFormat, normalized)
	}

	for _, pattern := range platePatterns {
		if pattern.MatchString(normalized) {
			return nil
		}
	}

	return fmt.Errorf("%w: %q does not match any UK plate format", domain.ErrInvalidFormat, normalized)
}

// NormalizeAndValidate normalizes the raw input and validates the result,
// returning the canonical registration on success.
func NormalizeAndValidate(raw string) (string, error) {
	normalized := Normalize(raw)
	if err := Validate(normalized); err != nil {
		return "", err
	}

	return normalized, nil
}
