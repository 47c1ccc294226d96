package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-history/internal/common"
	"github.com/i474232898/weather-history/internal/telemetry"
	"github.com/i474232898/weather-history/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder on the Google Geocoding API.
// The forward lookup yields coordinates; a reverse lookup supplies name, region and country.
type GoogleGeocoder struct {
	name    string
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker

	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder uses RateLimit and BreakerFailures from opts; the client library does its own HTTP.
func NewGoogleGeocoder(apiKey string, opts Options) *GoogleGeocoder {
	// The client library reads its key from a package variable.
	geocoder.ApiKey = apiKey

	g := &GoogleGeocoder{
		name:    "google",
		circuit: newCircuitBreaker("google-geocoding", opts.BreakerFailures),
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return g
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Resolve geocodes the free-text query. The client library does not take a context,
// so cancellation is only observed before the calls start.
func (g *GoogleGeocoder) Resolve(ctx context.Context, query string) (weather.Location, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return weather.Location{}, fmt.Errorf("%w: rate limit wait canceled: %v", weather.ErrUpstream, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
	}

	result, err := g.circuit.Execute(func() (interface{}, error) {
		loc, ferr := g.forward(geocoder.Address{Street: query})
		if ferr != nil {
			if isZeroResults(ferr) {
				// A miss is a valid answer, not a provider fault.
				return nil, nil
			}
			return nil, ferr
		}

		addrs, rerr := g.reverse(loc)
		if rerr != nil && !isZeroResults(rerr) {
			return nil, rerr
		}

		out := weather.Location{Latitude: loc.Latitude, Longitude: loc.Longitude}
		if len(addrs) > 0 {
			a := addrs[0]
			out.Name = common.FirstNonEmpty(a.City, a.County, a.District, a.FormattedAddress, query)
			out.Region = a.State
			out.Country = a.Country
		} else {
			out.Name = query
		}
		return out, nil
	})
	if err != nil {
		telemetry.ObserveUpstream(g.circuit.Name(), "error")
		return weather.Location{}, fmt.Errorf("%w: google geocoding %q: %v", weather.ErrUpstream, query, err)
	}
	telemetry.ObserveUpstream(g.circuit.Name(), "ok")

	loc, ok := result.(weather.Location)
	if !ok {
		return weather.Location{}, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, query)
	}
	return loc, nil
}

func isZeroResults(err error) bool {
	return common.HasAny(err.Error(), "ZERO_RESULTS", "no results")
}
