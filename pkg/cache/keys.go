package cache

import (
	"fmt"
	"strings"
	"unicode"
)

const maxKeyLength = 250

// ValidateKey checks a cache key against the library's rules: non-empty,
// at most 250 characters, no control characters, no leading or trailing
// whitespace. Returns nil for valid keys.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrInvalidKey, maxKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: key contains control character", ErrInvalidKey)
		}
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: key has surrounding whitespace", ErrInvalidKey)
	}
	return nil
}

// JoinKey builds a namespaced key from parts joined with ":".
// Example: JoinKey("dog", "rex", "feeding") -> "dog:rex:feeding".
func JoinKey(parts ...string) string {
	return strings.Join(parts, ":")
}
