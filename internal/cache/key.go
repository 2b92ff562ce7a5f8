package cache

import (
	"fmt"
	"strings"
)

// reservedKeyChars may not appear anywhere in a cache key.
const reservedKeyChars = `{}()/\@`

// IsValidKey reports whether key is usable as a cache key.
func IsValidKey(key string) bool {
	return !strings.ContainsAny(key, reservedKeyChars)
}

// ValidateKey returns ErrInvalidArgument if key is not usable.
func ValidateKey(key string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("%w: key %q must not contain any of %s", ErrInvalidArgument, key, reservedKeyChars)
	}
	return nil
}
