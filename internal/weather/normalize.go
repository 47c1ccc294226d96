package weather

import (
	"math"
)

// NormalizeRecord combines a search request, its geocoded location and forecast days
// into a HistoryRecord. The query is stored exactly as entered. ID and CreatedAt are left
// for the store to assign.
func NormalizeRecord(req SearchRequest, loc Location, days []DailyTemperature) HistoryRecord {
	data := make([]DailyTemperature, len(days))
	copy(data, days)

	return HistoryRecord{
		SearchQuery:      req.Location,
		ResolvedLocation: loc.DisplayName(),
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		WeatherData:      data,
		UserNote:         "",
	}
}

// RoundTemp rounds a Celsius value to the nearest integer, halves rounding up
// (2.5 -> 3, -2.5 -> -2).
func RoundTemp(c float64) int {
	return int(math.Floor(c + 0.5))
}
