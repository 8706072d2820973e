package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrTemporary    = errors.New("temporary failure")

	// ErrEncoding means an uploaded image could not be decoded or re-encoded.
	ErrEncoding = errors.New("image encoding failed")
	// ErrExtraction means the vision service answered with something that is not a place list.
	ErrExtraction       = errors.New("place extraction failed")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicatePlace   = errors.New("place already saved")
	ErrStorage          = errors.New("storage failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
