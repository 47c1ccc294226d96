package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-history/internal/weather"
)

func TestOpenMeteoForecasterFetch(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"latitude": 48.86,
			"longitude": 2.35,
			"daily": {
				"time": ["2024-05-01", "2024-05-02", "2024-05-03"],
				"temperature_2m_max": [5.4, 2.5, -2.5],
				"temperature_2m_min": [1.2, -0.6, -7.5]
			}
		}`))
	}))
	defer srv.Close()

	f := NewOpenMeteoForecaster(Options{Client: srv.Client(), BaseURL: srv.URL})
	days, err := f.Fetch(context.Background(), 48.8566, 2.3522, "2024-05-01", "2024-05-03")
	require.NoError(t, err)

	assert.Equal(t, []weather.DailyTemperature{
		{Date: "2024-05-01", MaxTemp: 5, MinTemp: 1},
		{Date: "2024-05-02", MaxTemp: 3, MinTemp: -1},
		{Date: "2024-05-03", MaxTemp: -2, MinTemp: -7},
	}, days)

	require.NotNil(t, got)
	assert.Equal(t, "/v1/forecast", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "48.8566", q.Get("latitude"))
	assert.Equal(t, "2.3522", q.Get("longitude"))
	assert.Equal(t, "2024-05-01", q.Get("start_date"))
	assert.Equal(t, "2024-05-03", q.Get("end_date"))
	assert.Equal(t, "temperature_2m_max,temperature_2m_min", q.Get("daily"))
}

func TestOpenMeteoForecasterBadPayloads(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"missing daily", http.StatusOK, `{"latitude": 48.86}`},
		{"missing series", http.StatusOK, `{"daily": {"time": ["2024-05-01"], "temperature_2m_max": [5.4]}}`},
		{"length mismatch", http.StatusOK, `{"daily": {"time": ["2024-05-01", "2024-05-02"], "temperature_2m_max": [5.4], "temperature_2m_min": [1.2]}}`},
		{"null temperature", http.StatusOK, `{"daily": {"time": ["2024-05-01"], "temperature_2m_max": [null], "temperature_2m_min": [1.2]}}`},
		{"not json", http.StatusOK, `<html>`},
		{"bad request", http.StatusBadRequest, `{"error": true, "reason": "out of range"}`},
		{"server error", http.StatusBadGateway, ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			f := NewOpenMeteoForecaster(Options{Client: srv.Client(), BaseURL: srv.URL})
			_, err := f.Fetch(context.Background(), 1, 2, "2024-05-01", "2024-05-02")
			require.Error(t, err)
			assert.ErrorIs(t, err, weather.ErrUpstream)
		})
	}
}

func TestOpenMeteoForecasterEmptyRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily": {"time": [], "temperature_2m_max": [], "temperature_2m_min": []}}`))
	}))
	defer srv.Close()

	f := NewOpenMeteoForecaster(Options{Client: srv.Client(), BaseURL: srv.URL})
	days, err := f.Fetch(context.Background(), 1, 2, "2024-05-01", "2024-05-02")
	require.NoError(t, err)
	assert.Empty(t, days)
}
