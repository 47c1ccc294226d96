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

// OpenWeatherCurrent implements weather.CurrentProvider on the OpenWeatherMap current weather
// and 5 day / 3 hour forecast APIs.
type OpenWeatherCurrent struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherCurrent(opts Options, apiKey string) *OpenWeatherCurrent {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenWeatherBaseURL
	}

	return &OpenWeatherCurrent{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: newHTTPClientConfig(opts),
		circuit: newCircuitBreaker("openweathermap-current", opts.BreakerFailures),
	}
}

func (p *OpenWeatherCurrent) Name() string {
	return p.name
}

type owmCurrentPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type owmForecastPayload struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
	} `json:"list"`
}

// Current fetches the current conditions and the midday entries of the 5 day forecast.
func (p *OpenWeatherCurrent) Current(ctx context.Context, q weather.CurrentQuery) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrUpstream)
	}

	var cur owmCurrentPayload
	if err := p.get(ctx, "/data/2.5/weather", q, &cur); err != nil {
		return weather.CurrentConditions{}, err
	}
	if cur.Main == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: current weather response has no main block", weather.ErrUpstream)
	}

	var fc owmForecastPayload
	if err := p.get(ctx, "/data/2.5/forecast", q, &fc); err != nil {
		return weather.CurrentConditions{}, err
	}

	out := weather.CurrentConditions{
		Location:  cur.Name,
		Latitude:  cur.Coord.Lat,
		Longitude: cur.Coord.Lon,
		Condition: weather.ConditionUnknown,
		Temp:      weather.RoundTemp(cur.Main.Temp),
		MaxTemp:   weather.RoundTemp(cur.Main.TempMax),
		MinTemp:   weather.RoundTemp(cur.Main.TempMin),
		Humidity:  cur.Main.Humidity,
		WindSpeed: cur.Wind.Speed,
		Forecast:  []weather.DailyTemperature{},
	}
	if cur.Sys.Country != "" {
		out.Location = cur.Name + ", " + cur.Sys.Country
	}
	if len(cur.Weather) > 0 {
		out.Condition = mapCondition(cur.Weather[0].Main)
		out.Description = cur.Weather[0].Description
		out.Icon = cur.Weather[0].Icon
	}

	// Entries are 3 hours apart; the 12:00 one stands for the day.
	for _, item := range fc.List {
		if !strings.HasSuffix(item.DtTxt, "12:00:00") || len(item.DtTxt) < len(weather.DateLayout) {
			continue
		}
		out.Forecast = append(out.Forecast, weather.DailyTemperature{
			Date:    item.DtTxt[:len(weather.DateLayout)],
			MaxTemp: weather.RoundTemp(item.Main.TempMax),
			MinTemp: weather.RoundTemp(item.Main.TempMin),
		})
	}
	return out, nil
}

func (p *OpenWeatherCurrent) get(ctx context.Context, path string, q weather.CurrentQuery, v any) error {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		if q.HasCoordinates() {
			values.Set("lat", strconv.FormatFloat(*q.Latitude, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(*q.Longitude, 'f', -1, 64))
		} else {
			values.Set("q", q.Location)
		}
		values.Set("units", "metric")
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return fmt.Errorf("%w: %s", weather.ErrLocationNotFound, q)
		}
		return fmt.Errorf("%w: %s: %w", weather.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", weather.ErrUpstream, path, err)
	}
	return nil
}
