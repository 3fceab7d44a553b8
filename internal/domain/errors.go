package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNormalization is returned when the completion service reply could
	// not be parsed into a product draft. This is the only pipeline stage
	// allowed to fail outward.
	ErrNormalization = errors.New("product normalization failed")

	// ErrCompletionFailure is returned when the completion API request fails
	ErrCompletionFailure = errors.New("completion API request failed")

	// ErrObjectNotFound is returned when a key does not exist in object storage
	ErrObjectNotFound = errors.New("object not found in storage")

	// ErrStorageFailure is returned when an object storage operation fails
	ErrStorageFailure = errors.New("object storage operation failed")
)
