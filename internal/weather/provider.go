package weather

import (
	"context"
)

// Geocoder resolves free-text input to the single best matching Location.
// Implementations return ErrLocationNotFound for zero matches and wrap ErrUpstream otherwise.
type Geocoder interface {
	Name() string
	Resolve(ctx context.Context, query string) (Location, error)
}

// Forecaster fetches daily max/min temperatures for a coordinate and an inclusive date range.
// Days are returned in ascending order, one per day the provider reports.
type Forecaster interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64, startDate, endDate string) ([]DailyTemperature, error)
}

// CurrentProvider reports live conditions and a short daily forecast for a place.
// Implementations return ErrLocationNotFound when the place is unknown and wrap ErrUpstream otherwise.
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, q CurrentQuery) (CurrentConditions, error)
}

// Store is the contract every history store (in-memory, SQL) must satisfy.
type Store interface {
	// List returns every record, newest first.
	List(ctx context.Context) ([]HistoryRecord, error)
	// Create assigns ID and CreatedAt and persists the record.
	Create(ctx context.Context, rec HistoryRecord) (HistoryRecord, error)
	// UpdateNote replaces only the note; ErrRecordNotFound when id is absent.
	UpdateNote(ctx context.Context, id, note string) (HistoryRecord, error)
	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
