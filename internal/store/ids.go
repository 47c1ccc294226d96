package store

import (
	"time"

	"github.com/google/uuid"
)

// newRecordID returns a time-ordered UUIDv7 so ids sort like creation times.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// creationTime normalizes timestamps to UTC at microsecond precision, the finest
// resolution every supported database keeps.
func creationTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
