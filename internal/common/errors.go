// Package common defines shared sentinel errors and small helpers used across
// the waterwatch client packages. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Crypto / storage integrity errors.
	ErrorInvalidKey = errors.New("invalid key")
	ErrorCorrupted  = errors.New("corrupted data")

	// Validation errors.
	ErrorValidation = errors.New("validation error")
)
