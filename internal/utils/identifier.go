package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const IdentifierMaxLength = 50

var identifierRegexp = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidateIdentifier checks the short-identifier format used across plans,
// category types, attribute types and reports.
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if len(identifier) > IdentifierMaxLength {
		return fmt.Errorf("identifier %q is longer than %d characters", identifier, IdentifierMaxLength)
	}
	if !identifierRegexp.MatchString(identifier) {
		return fmt.Errorf("identifier %q may only contain lowercase letters, digits and underscores", identifier)
	}
	return nil
}

// Slugify derives a valid identifier from free-form text.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.Trim(b.String(), "_")
	if len(s) > IdentifierMaxLength {
		s = strings.Trim(s[:IdentifierMaxLength], "_")
	}
	return s
}
