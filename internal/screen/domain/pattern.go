package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// IsBlankPattern reports whether a regex rule pattern is empty or whitespace.
// Blank patterns never match.
func IsBlankPattern(p string) bool {
	return strings.TrimSpace(p) == ""
}

// ValidatePattern checks that a non-blank pattern compiles. Blank patterns
// are accepted since they simply disable matching.
func ValidatePattern(p string) error {
	if IsBlankPattern(p) {
		return nil
	}
	if _, err := regexp.Compile(p); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
