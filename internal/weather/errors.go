package weather

import "errors"

var (
	// ErrBadRequest marks structurally invalid input, rejected before any outbound call.
	ErrBadRequest = errors.New("bad request")

	// ErrLocationNotFound is returned when the geocoder has no match for a query.
	ErrLocationNotFound = errors.New("location not found")

	// ErrUpstream covers unreachable providers, non-2xx responses and unexpected payloads.
	ErrUpstream = errors.New("upstream error")

	// ErrPersistence wraps any failure of the history store.
	ErrPersistence = errors.New("persistence error")

	// ErrRecordNotFound is returned by stores when an id does not exist.
	ErrRecordNotFound = errors.New("history record not found")
)
