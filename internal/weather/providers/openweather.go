package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-history/internal/weather"
)

const defaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherGeocoder implements weather.Geocoder on the OpenWeatherMap direct geocoding API.
type OpenWeatherGeocoder struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherGeocoder(opts Options, apiKey string) *OpenWeatherGeocoder {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenWeatherBaseURL
	}

	return &OpenWeatherGeocoder{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: newHTTPClientConfig(opts),
		circuit: newCircuitBreaker("openweathermap-geocoding", opts.BreakerFailures),
	}
}

func (g *OpenWeatherGeocoder) Name() string {
	return g.name
}

// Resolve asks for the single best match (limit=1); the first result wins.
func (g *OpenWeatherGeocoder) Resolve(ctx context.Context, query string) (weather.Location, error) {
	if g.apiKey == "" {
		return weather.Location{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrUpstream)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("limit", "1")
		values.Set("appid", g.apiKey)

		u := fmt.Sprintf("%s/geo/1.0/direct?%s", g.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Location{}, fmt.Errorf("%w: geocoding %q: %w", weather.ErrUpstream, query, err)
	}
	defer resp.Body.Close()

	var payload []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, fmt.Errorf("%w: decode geocoding response: %v", weather.ErrUpstream, err)
	}

	if len(payload) == 0 {
		return weather.Location{}, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, query)
	}

	best := payload[0]
	return weather.Location{
		Name:      best.Name,
		Region:    best.State,
		Country:   best.Country,
		Latitude:  best.Lat,
		Longitude: best.Lon,
	}, nil
}
