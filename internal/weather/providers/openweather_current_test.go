package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-history/internal/weather"
)

const owmCurrentBody = `{
	"coord": {"lon": 2.3488, "lat": 48.8534},
	"weather": [{"main": "Clouds", "description": "broken clouds", "icon": "04d"}],
	"main": {"temp": 14.5, "temp_min": 12.4, "temp_max": 16.6, "humidity": 71},
	"wind": {"speed": 4.12},
	"sys": {"country": "FR"},
	"name": "Paris",
	"cod": 200
}`

const owmForecastBody = `{
	"cod": "200",
	"list": [
		{"dt_txt": "2024-05-01 09:00:00", "main": {"temp_min": 10.1, "temp_max": 11.2}},
		{"dt_txt": "2024-05-01 12:00:00", "main": {"temp_min": 12.5, "temp_max": 15.5}},
		{"dt_txt": "2024-05-02 12:00:00", "main": {"temp_min": 9.4, "temp_max": 13.6}},
		{"dt_txt": "2024-05-02 15:00:00", "main": {"temp_min": 11.0, "temp_max": 14.0}}
	]
}`

func newOWMCurrentServer(t *testing.T) (*httptest.Server, func() []url.Values) {
	t.Helper()
	var (
		mu      sync.Mutex
		queries []url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()

		if r.URL.Query().Get("q") == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
			return
		}
		switch r.URL.Path {
		case "/data/2.5/weather":
			_, _ = w.Write([]byte(owmCurrentBody))
		case "/data/2.5/forecast":
			_, _ = w.Write([]byte(owmForecastBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []url.Values {
		mu.Lock()
		defer mu.Unlock()
		return append([]url.Values(nil), queries...)
	}
}

func TestOpenWeatherCurrentByName(t *testing.T) {
	srv, queries := newOWMCurrentServer(t)

	p := NewOpenWeatherCurrent(Options{Client: srv.Client(), BaseURL: srv.URL}, "secret")
	cur, err := p.Current(context.Background(), weather.CurrentQuery{Location: "Paris"})
	require.NoError(t, err)

	assert.Equal(t, "Paris, FR", cur.Location)
	assert.Equal(t, 48.8534, cur.Latitude)
	assert.Equal(t, weather.ConditionCloudy, cur.Condition)
	assert.Equal(t, "broken clouds", cur.Description)
	assert.Equal(t, "04d", cur.Icon)
	assert.Equal(t, 15, cur.Temp)
	assert.Equal(t, 17, cur.MaxTemp)
	assert.Equal(t, 12, cur.MinTemp)
	assert.Equal(t, 71, cur.Humidity)
	assert.Equal(t, 4.12, cur.WindSpeed)
	assert.Equal(t, []weather.DailyTemperature{
		{Date: "2024-05-01", MaxTemp: 16, MinTemp: 13},
		{Date: "2024-05-02", MaxTemp: 14, MinTemp: 9},
	}, cur.Forecast)

	qs := queries()
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.Equal(t, "Paris", q.Get("q"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "secret", q.Get("appid"))
	}
}

func TestOpenWeatherCurrentByCoordinates(t *testing.T) {
	srv, queries := newOWMCurrentServer(t)

	lat, lon := 48.8534, 2.3488
	p := NewOpenWeatherCurrent(Options{Client: srv.Client(), BaseURL: srv.URL}, "secret")
	_, err := p.Current(context.Background(), weather.CurrentQuery{Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)

	for _, q := range queries() {
		assert.Equal(t, "48.8534", q.Get("lat"))
		assert.Equal(t, "2.3488", q.Get("lon"))
		assert.Empty(t, q.Get("q"))
	}
}

func TestOpenWeatherCurrentNotFound(t *testing.T) {
	srv, _ := newOWMCurrentServer(t)

	p := NewOpenWeatherCurrent(Options{Client: srv.Client(), BaseURL: srv.URL}, "secret")
	_, err := p.Current(context.Background(), weather.CurrentQuery{Location: "Atlantis"})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
	assert.NotErrorIs(t, err, weather.ErrUpstream)
}

func TestOpenWeatherCurrentUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Paris"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherCurrent(Options{Client: srv.Client(), BaseURL: srv.URL}, "secret")
	_, err := p.Current(context.Background(), weather.CurrentQuery{Location: "Paris"})
	assert.ErrorIs(t, err, weather.ErrUpstream)

	p = NewOpenWeatherCurrent(Options{Client: srv.Client(), BaseURL: srv.URL}, "")
	_, err = p.Current(context.Background(), weather.CurrentQuery{Location: "Paris"})
	assert.ErrorIs(t, err, weather.ErrUpstream)
}
