package weather

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/weather-history/internal/telemetry"
)

// Condition is a coarse weather category shared by all providers.
type Condition string

const (
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionUnknown Condition = "unknown"
)

// CurrentQuery selects a place either by free text or by coordinates.
type CurrentQuery struct {
	Location  string
	Latitude  *float64
	Longitude *float64
}

// HasCoordinates reports whether the query is by latitude/longitude.
func (q CurrentQuery) HasCoordinates() bool {
	return q.Latitude != nil && q.Longitude != nil
}

// String is the label used in messages and logs.
func (q CurrentQuery) String() string {
	if q.HasCoordinates() {
		return strconv.FormatFloat(*q.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*q.Longitude, 'f', -1, 64)
	}
	return strings.TrimSpace(q.Location)
}

// Validate requires exactly one of a location or a lat/lon pair. Returned errors wrap ErrBadRequest.
func (q CurrentQuery) Validate() error {
	hasLat, hasLon := q.Latitude != nil, q.Longitude != nil
	location := strings.TrimSpace(q.Location)

	switch {
	case hasLat != hasLon:
		return fmt.Errorf("%w: lat and lon must be given together", ErrBadRequest)
	case hasLat && location != "":
		return fmt.Errorf("%w: give either location or lat and lon, not both", ErrBadRequest)
	case !hasLat && location == "":
		return fmt.Errorf("%w: location or lat and lon is required", ErrBadRequest)
	}

	if hasLat {
		if math.IsNaN(*q.Latitude) || *q.Latitude < -90 || *q.Latitude > 90 {
			return fmt.Errorf("%w: lat must be between -90 and 90", ErrBadRequest)
		}
		if math.IsNaN(*q.Longitude) || *q.Longitude < -180 || *q.Longitude > 180 {
			return fmt.Errorf("%w: lon must be between -180 and 180", ErrBadRequest)
		}
	}
	return nil
}

// CurrentConditions is the live weather at a place plus its short daily forecast.
// Temperatures are whole degrees Celsius.
type CurrentConditions struct {
	Location    string             `json:"location"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	Condition   Condition          `json:"condition"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	Temp        int                `json:"temp"`
	MaxTemp     int                `json:"maxTemp"`
	MinTemp     int                `json:"minTemp"`
	Humidity    int                `json:"humidity"`
	WindSpeed   float64            `json:"windSpeed"` // m/s
	Forecast    []DailyTemperature `json:"forecast"`
}

// CurrentService answers current-conditions lookups. Nothing is persisted.
type CurrentService struct {
	provider CurrentProvider
	log      *zap.Logger
}

// NewCurrentService creates a CurrentService. A nil logger discards output.
func NewCurrentService(provider CurrentProvider, log *zap.Logger) *CurrentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CurrentService{provider: provider, log: log.Named("current")}
}

// Lookup validates the query and asks the provider for current conditions.
func (s *CurrentService) Lookup(ctx context.Context, q CurrentQuery) (CurrentConditions, error) {
	ctx, span := telemetry.StartSpan(ctx, "weather.CurrentLookup")
	defer span.End()

	if err := q.Validate(); err != nil {
		telemetry.EndSpan(span, err)
		return CurrentConditions{}, err
	}
	q.Location = strings.TrimSpace(q.Location)

	cur, err := s.provider.Current(ctx, q)
	if err != nil {
		err = asUpstream(err)
		telemetry.EndSpan(span, err)
		s.log.Warn("current lookup failed",
			zap.String("query", q.String()),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return CurrentConditions{}, err
	}
	if cur.Forecast == nil {
		cur.Forecast = []DailyTemperature{}
	}
	return cur, nil
}
