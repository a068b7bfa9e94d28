package domain

import (
	"context"
	"time"
)

// AddressStore persists address records. Each call is atomic on its own;
// there is no cross-call locking.
type AddressStore interface {
	// FindByNormalizedText returns ErrNotFound when no record has the key.
	FindByNormalizedText(ctx context.Context, normalized string) (Address, error)

	// FindByID returns ErrNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (Address, error)

	// FindPage lists records newest-created first and reports the total count.
	FindPage(ctx context.Context, limit, offset int) ([]Address, int, error)

	// Create assigns an id and inserts the record. It returns ErrConflict if
	// the normalized text is already taken and ErrInvalidInput if required
	// fields are missing.
	Create(ctx context.Context, addr Address) (Address, error)

	// FindStale returns records with coordinates whose wildfire data was
	// never fetched or fetched before staleBefore, never-fetched first and
	// then oldest fetch first, at most limit records.
	FindStale(ctx context.Context, staleBefore time.Time, limit int) ([]Address, error)

	// Save overwrites the wildfire fields and updatedAt of an existing record.
	Save(ctx context.Context, addr Address) error
}

// ValidateNew checks the fields a store requires before inserting.
func ValidateNew(addr Address) error {
	switch {
	case addr.Address == "":
		return ErrInvalidInput
	case addr.AddressNormalized == "":
		return ErrInvalidInput
	case (addr.Latitude == nil) != (addr.Longitude == nil):
		return ErrInvalidInput
	}
	return nil
}
