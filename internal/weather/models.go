package weather

import (
	"time"
)

// DateLayout is the calendar date format used for search ranges and forecast days.
const DateLayout = "2006-01-02"

// Location is a geocoded place: the single best match for a free-text query.
type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DisplayName returns the canonical "<name>, <region> <country>" label.
// An empty region leaves two spaces after the comma; stored records rely on that shape.
func (l Location) DisplayName() string {
	return l.Name + ", " + l.Region + " " + l.Country
}

// DailyTemperature is one forecast day, temperatures in whole degrees Celsius.
type DailyTemperature struct {
	Date    string `json:"date"`
	MaxTemp int    `json:"maxTemp"`
	MinTemp int    `json:"minTemp"`
}

// HistoryRecord is the persisted result of one search.
type HistoryRecord struct {
	ID               string             `json:"id"`
	SearchQuery      string             `json:"searchQuery"`
	ResolvedLocation string             `json:"resolvedLocation"`
	Latitude         float64            `json:"latitude"`
	Longitude        float64            `json:"longitude"`
	StartDate        string             `json:"startDate"`
	EndDate          string             `json:"endDate"`
	WeatherData      []DailyTemperature `json:"weatherData"`
	UserNote         string             `json:"userNote"`
	CreatedAt        time.Time          `json:"createdAt"` // always UTC
}

// SearchRequest is the input of a create: a location query and an inclusive date range.
type SearchRequest struct {
	Location  string `json:"location" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}
