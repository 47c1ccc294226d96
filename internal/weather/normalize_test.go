package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTemp(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{5.4, 5},
		{1.2, 1},
		{2.5, 3},
		{-2.5, -2},
		{-2.6, -3},
		{-0.4, 0},
		{0, 0},
		{29.5, 30},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoundTemp(tc.in), "RoundTemp(%v)", tc.in)
	}
}

func TestDisplayName(t *testing.T) {
	loc := Location{Name: "Paris", Region: "Île-de-France", Country: "FR"}
	assert.Equal(t, "Paris, Île-de-France FR", loc.DisplayName())

	// No region keeps both separators.
	loc = Location{Name: "Monaco", Country: "MC"}
	assert.Equal(t, "Monaco,  MC", loc.DisplayName())
}

func TestNormalizeRecord(t *testing.T) {
	req := SearchRequest{Location: "  Paris ", StartDate: "2024-05-01", EndDate: "2024-05-02"}
	loc := Location{Name: "Paris", Region: "Île-de-France", Country: "FR", Latitude: 48.8566, Longitude: 2.3522}
	days := []DailyTemperature{
		{Date: "2024-05-01", MaxTemp: 5, MinTemp: 1},
		{Date: "2024-05-02", MaxTemp: 6, MinTemp: 2},
	}

	rec := NormalizeRecord(req, loc, days)

	assert.Empty(t, rec.ID)
	assert.True(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "  Paris ", rec.SearchQuery)
	assert.Equal(t, "Paris, Île-de-France FR", rec.ResolvedLocation)
	assert.Equal(t, 48.8566, rec.Latitude)
	assert.Equal(t, 2.3522, rec.Longitude)
	assert.Equal(t, "2024-05-01", rec.StartDate)
	assert.Equal(t, "2024-05-02", rec.EndDate)
	assert.Equal(t, days, rec.WeatherData)
	assert.Equal(t, "", rec.UserNote)

	// The record owns its copy of the days.
	days[0].MaxTemp = 99
	assert.Equal(t, 5, rec.WeatherData[0].MaxTemp)
}
