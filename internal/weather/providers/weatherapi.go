package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-history/internal/common"
	"github.com/i474232898/weather-history/internal/weather"
)

const defaultWeatherAPIBaseURL = "https://api.weatherapi.com"

// weatherAPINoMatch is the error code WeatherAPI.com returns for an unknown q.
const weatherAPINoMatch = 1006

// WeatherAPIProvider implements weather.Forecaster and weather.CurrentProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewWeatherAPIProvider(opts Options, apiKey string) *WeatherAPIProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultWeatherAPIBaseURL
	}

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: newHTTPClientConfig(opts),
		circuit: newCircuitBreaker("weatherapi", opts.BreakerFailures),
		now:     time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIForecastDay struct {
	Date string `json:"date"`
	Day  struct {
		MaxTempC *float64 `json:"maxtemp_c"`
		MinTempC *float64 `json:"mintemp_c"`
	} `json:"day"`
}

type weatherAPIPayload struct {
	Location *struct {
		Name    string  `json:"name"`
		Region  string  `json:"region"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"location"`
	Current *struct {
		TempC     float64 `json:"temp_c"`
		Humidity  int     `json:"humidity"`
		WindKph   float64 `json:"wind_kph"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
	Forecast *struct {
		ForecastDay []weatherAPIForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type weatherAPIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch returns daily max/min for the range. Ranges starting before today go to history.json
// (dt/end_dt); the rest go to forecast.json with enough days to reach endDate.
func (p *WeatherAPIProvider) Fetch(ctx context.Context, lat, lon float64, startDate, endDate string) ([]weather.DailyTemperature, error) {
	start, err := time.Parse(weather.DateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date %q", weather.ErrUpstream, startDate)
	}
	end, err := time.Parse(weather.DateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date %q", weather.ErrUpstream, endDate)
	}

	today, _ := time.Parse(weather.DateLayout, p.now().UTC().Format(weather.DateLayout))

	values := url.Values{}
	values.Set("q", formatLatLon(lat, lon))

	path := "/v1/forecast.json"
	if start.Before(today) {
		path = "/v1/history.json"
		values.Set("dt", startDate)
		values.Set("end_dt", endDate)
	} else {
		days := int(end.Sub(today).Hours()/24) + 1
		values.Set("days", strconv.Itoa(days))
	}

	payload, err := p.get(ctx, path, values, formatLatLon(lat, lon))
	if err != nil {
		return nil, err
	}
	if payload.Forecast == nil {
		return nil, fmt.Errorf("%w: weatherapi response has no forecast block", weather.ErrUpstream)
	}

	days := make([]weather.DailyTemperature, 0, len(payload.Forecast.ForecastDay))
	for _, fd := range payload.Forecast.ForecastDay {
		if fd.Date < startDate || fd.Date > endDate {
			continue
		}
		day, err := weatherAPIDay(fd)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// Current uses forecast.json, which carries the location, the current block and the next days.
func (p *WeatherAPIProvider) Current(ctx context.Context, q weather.CurrentQuery) (weather.CurrentConditions, error) {
	values := url.Values{}
	if q.HasCoordinates() {
		values.Set("q", formatLatLon(*q.Latitude, *q.Longitude))
	} else {
		values.Set("q", q.Location)
	}
	values.Set("days", "5")

	payload, err := p.get(ctx, "/v1/forecast.json", values, q.String())
	if err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Location == nil || payload.Current == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: weatherapi response has no current block", weather.ErrUpstream)
	}

	loc := weather.Location{
		Name:    payload.Location.Name,
		Region:  payload.Location.Region,
		Country: payload.Location.Country,
	}
	out := weather.CurrentConditions{
		Location:    loc.DisplayName(),
		Latitude:    payload.Location.Lat,
		Longitude:   payload.Location.Lon,
		Condition:   mapCondition(payload.Current.Condition.Text),
		Description: payload.Current.Condition.Text,
		Icon:        payload.Current.Condition.Icon,
		Temp:        weather.RoundTemp(payload.Current.TempC),
		MaxTemp:     weather.RoundTemp(payload.Current.TempC),
		MinTemp:     weather.RoundTemp(payload.Current.TempC),
		Humidity:    payload.Current.Humidity,
		// kph to m/s
		WindSpeed: payload.Current.WindKph / 3.6,
		Forecast:  []weather.DailyTemperature{},
	}

	if payload.Forecast != nil {
		for _, fd := range payload.Forecast.ForecastDay {
			day, err := weatherAPIDay(fd)
			if err != nil {
				return weather.CurrentConditions{}, err
			}
			out.Forecast = append(out.Forecast, day)
		}
	}
	if len(out.Forecast) > 0 {
		out.MaxTemp = out.Forecast[0].MaxTemp
		out.MinTemp = out.Forecast[0].MinTemp
	}
	return out, nil
}

func (p *WeatherAPIProvider) get(ctx context.Context, path string, values url.Values, label string) (*weatherAPIPayload, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrUpstream)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		v := url.Values{}
		for k, vs := range values {
			v[k] = vs
		}
		v.Set("key", p.apiKey)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, v.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		if isWeatherAPINoMatch(err) {
			return nil, fmt.Errorf("%w: %s", weather.ErrLocationNotFound, label)
		}
		return nil, fmt.Errorf("%w: weatherapi %s: %w", weather.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	var payload weatherAPIPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode weatherapi response: %v", weather.ErrUpstream, err)
	}
	return &payload, nil
}

// isWeatherAPINoMatch recognizes the 400 {"error":{"code":1006}} answer for an unknown place.
func isWeatherAPINoMatch(err error) bool {
	var se *statusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		return false
	}
	var body weatherAPIError
	if json.Unmarshal(se.Body, &body) != nil {
		return false
	}
	return body.Error.Code == weatherAPINoMatch
}

func weatherAPIDay(fd weatherAPIForecastDay) (weather.DailyTemperature, error) {
	if fd.Day.MaxTempC == nil || fd.Day.MinTempC == nil {
		return weather.DailyTemperature{}, fmt.Errorf("%w: missing temperature for %s", weather.ErrUpstream, fd.Date)
	}
	return weather.DailyTemperature{
		Date:    fd.Date,
		MaxTemp: weather.RoundTemp(*fd.Day.MaxTempC),
		MinTemp: weather.RoundTemp(*fd.Day.MinTempC),
	}, nil
}

func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// mapCondition folds provider condition text ("Light rain", "Clouds", ...) into a Condition.
func mapCondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard"):
		return weather.ConditionSnow
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}

var (
	_ weather.Forecaster      = (*WeatherAPIProvider)(nil)
	_ weather.CurrentProvider = (*WeatherAPIProvider)(nil)
	_ weather.CurrentProvider = (*OpenWeatherCurrent)(nil)
)
