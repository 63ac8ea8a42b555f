package storage

import (
	"context"

	"stayfinder/models"
)

// ListingWriter persists a cleaned listing snapshot, replacing the previous one.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// ListingReader reads back the last persisted snapshot.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}
