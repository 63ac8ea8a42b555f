package services

import "errors"

var (
	// ErrCatalogUnavailable means no listing snapshot was ever loaded. The
	// caller may retry; it is not the same as an empty result.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrListingNotFound    = errors.New("listing not found")
	ErrInvalidListing     = errors.New("invalid listing")
	ErrInvalidOwner       = errors.New("invalid owner")
)
