package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-history/internal/weather"
)

func TestGoogleGeocoderResolve(t *testing.T) {
	g := NewGoogleGeocoder("key", Options{})
	var gotStreet string
	g.forward = func(a geocoder.Address) (geocoder.Location, error) {
		gotStreet = a.Street
		return geocoder.Location{Latitude: 48.8566, Longitude: 2.3522}, nil
	}
	g.reverse = func(geocoder.Location) ([]geocoder.Address, error) {
		return []geocoder.Address{{City: "Paris", State: "Île-de-France", Country: "France"}}, nil
	}

	loc, err := g.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", gotStreet)
	assert.Equal(t, weather.Location{
		Name:      "Paris",
		Region:    "Île-de-France",
		Country:   "France",
		Latitude:  48.8566,
		Longitude: 2.3522,
	}, loc)
}

func TestGoogleGeocoderFallsBackToQuery(t *testing.T) {
	g := NewGoogleGeocoder("key", Options{})
	g.forward = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{Latitude: 1, Longitude: 2}, nil
	}
	g.reverse = func(geocoder.Location) ([]geocoder.Address, error) {
		return nil, errors.New("ZERO_RESULTS")
	}

	loc, err := g.Resolve(context.Background(), "Middle of nowhere")
	require.NoError(t, err)
	assert.Equal(t, "Middle of nowhere", loc.Name)
	assert.Equal(t, 1.0, loc.Latitude)
}

func TestGoogleGeocoderErrors(t *testing.T) {
	g := NewGoogleGeocoder("key", Options{})
	g.forward = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("Geocoding Failed: ZERO_RESULTS")
	}
	_, err := g.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)

	g = NewGoogleGeocoder("key", Options{})
	g.forward = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}
	_, err = g.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrUpstream)
}
