package cache

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the cache tiers and store implementations.
var (
	// ErrKeyNotFound is returned when a requested key does not exist
	ErrKeyNotFound = errors.New("cache: key not found")

	// ErrInvalidKey is returned for empty, oversized, or malformed keys
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrStoreUnavailable is returned when a durable store cannot be reached
	ErrStoreUnavailable = errors.New("cache: store unavailable")

	// ErrTimeout is returned when a store operation exceeds its deadline
	ErrTimeout = errors.New("cache: operation timeout")

	// ErrCircuitOpen is returned while the store circuit breaker is open
	ErrCircuitOpen = errors.New("cache: circuit breaker open")
)

// IsNotFound reports whether err indicates a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsTimeout reports whether err indicates a store timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCircuitOpen reports whether err indicates an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// ClassifyError maps an error to a short label used for metrics.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "other"
	}
}

// WrapError tags err with the store name and operation that produced it.
func WrapError(err error, store, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store %s %s: %w", store, operation, err)
}
