package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-history/internal/weather"
)

const defaultOpenMeteoBaseURL = "https://api.open-meteo.com"

// OpenMeteoForecaster implements weather.Forecaster for Open-Meteo daily temperatures.
type OpenMeteoForecaster struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoForecaster(opts Options) *OpenMeteoForecaster {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenMeteoBaseURL
	}

	return &OpenMeteoForecaster{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: newHTTPClientConfig(opts),
		circuit: newCircuitBreaker("openmeteo", opts.BreakerFailures),
	}
}

func (p *OpenMeteoForecaster) Name() string {
	return p.name
}

// openMeteoDaily mirrors the "daily" block; pointers catch nulls the API emits for missing values.
type openMeteoDaily struct {
	Time []string   `json:"time"`
	Max  []*float64 `json:"temperature_2m_max"`
	Min  []*float64 `json:"temperature_2m_min"`
}

// Fetch requests daily max/min temperatures for the range. The date strings are passed through
// as given; the provider decides how many days it reports.
func (p *OpenMeteoForecaster) Fetch(ctx context.Context, lat, lon float64, startDate, endDate string) ([]weather.DailyTemperature, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("start_date", startDate)
		values.Set("end_date", endDate)
		values.Set("daily", "temperature_2m_max,temperature_2m_min")

		u := fmt.Sprintf("%s/v1/forecast?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: forecast: %w", weather.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Daily *openMeteoDaily `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode forecast response: %v", weather.ErrUpstream, err)
	}

	return normalizeOpenMeteoDaily(payload.Daily)
}

func normalizeOpenMeteoDaily(daily *openMeteoDaily) ([]weather.DailyTemperature, error) {
	if daily == nil || daily.Time == nil || daily.Max == nil || daily.Min == nil {
		return nil, fmt.Errorf("%w: forecast response has no daily series", weather.ErrUpstream)
	}
	if len(daily.Max) != len(daily.Time) || len(daily.Min) != len(daily.Time) {
		return nil, fmt.Errorf("%w: daily series lengths differ (time=%d max=%d min=%d)",
			weather.ErrUpstream, len(daily.Time), len(daily.Max), len(daily.Min))
	}

	days := make([]weather.DailyTemperature, 0, len(daily.Time))
	for i, date := range daily.Time {
		if daily.Max[i] == nil || daily.Min[i] == nil {
			return nil, fmt.Errorf("%w: missing temperature for %s", weather.ErrUpstream, date)
		}
		days = append(days, weather.DailyTemperature{
			Date:    date,
			MaxTemp: weather.RoundTemp(*daily.Max[i]),
			MinTemp: weather.RoundTemp(*daily.Min[i]),
		})
	}
	return days, nil
}
