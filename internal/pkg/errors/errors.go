package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyDocument means no text could be extracted from an uploaded document.
	ErrEmptyDocument = errors.New("no text extracted from document")
	// ErrExtraction means an upstream OCR or LLM call failed; the caller may retry.
	ErrExtraction = errors.New("extraction failed")
	// ErrDuplicateDocument means the document was already merged for this entity.
	// Callers treat it as a no-op success, not a failure.
	ErrDuplicateDocument = errors.New("document already processed")
	// ErrPersistence means a storage transaction failed; no partial writes remain.
	ErrPersistence = errors.New("persistence failure")
)
