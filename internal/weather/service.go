package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/weather-history/internal/telemetry"
)

// Stage names a step of the create pipeline.
type Stage string

const (
	StageValidating  Stage = "VALIDATING_INPUT"
	StageGeocoding   Stage = "GEOCODING"
	StageForecasting Stage = "FORECASTING"
	StageNormalizing Stage = "NORMALIZING"
	StagePersisting  Stage = "PERSISTING"
	StageDone        Stage = "DONE"
)

// StageError records the stage at which a create failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(string(e.Stage)), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Service orchestrates geocoding, forecasting and persistence of history records.
type Service struct {
	store      Store
	geocoder   Geocoder
	forecaster Forecaster
	log        *zap.Logger
}

// NewService creates a new Service. A nil logger discards output.
func NewService(store Store, geocoder Geocoder, forecaster Forecaster, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:      store,
		geocoder:   geocoder,
		forecaster: forecaster,
		log:        log.Named("weather"),
	}
}

// CreateSearch validates the request, geocodes the location, fetches the forecast for the
// requested range and persists the normalized record. Nothing is persisted unless every stage succeeds.
func (s *Service) CreateSearch(ctx context.Context, req SearchRequest) (HistoryRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "weather.CreateSearch")
	defer span.End()

	// The record keeps the query as sent; lookups use the trimmed form.
	query := strings.TrimSpace(req.Location)

	var (
		loc   Location
		days  []DailyTemperature
		rec   HistoryRecord
		saved HistoryRecord
	)

	err := s.runStage(ctx, StageValidating, func(context.Context) error {
		return req.Validate()
	})
	if err == nil {
		err = s.runStage(ctx, StageGeocoding, func(ctx context.Context) error {
			var gerr error
			loc, gerr = s.geocoder.Resolve(ctx, query)
			return asUpstream(gerr)
		})
	}
	if err == nil {
		err = s.runStage(ctx, StageForecasting, func(ctx context.Context) error {
			var ferr error
			days, ferr = s.forecaster.Fetch(ctx, loc.Latitude, loc.Longitude, req.StartDate, req.EndDate)
			return asUpstream(ferr)
		})
	}
	if err == nil {
		err = s.runStage(ctx, StageNormalizing, func(context.Context) error {
			rec = NormalizeRecord(req, loc, days)
			return nil
		})
	}
	if err == nil {
		err = s.runStage(ctx, StagePersisting, func(ctx context.Context) error {
			var perr error
			saved, perr = s.store.Create(ctx, rec)
			if perr != nil {
				return fmt.Errorf("%w: %w", ErrPersistence, perr)
			}
			return nil
		})
	}

	if err != nil {
		telemetry.EndSpan(span, err)
		var se *StageError
		if errors.As(err, &se) {
			telemetry.SearchFailures.WithLabelValues(string(se.Stage)).Inc()
		}
		s.log.Warn("search failed",
			zap.String("query", query),
			zap.String("startDate", req.StartDate),
			zap.String("endDate", req.EndDate),
			zap.Error(err),
		)
		return HistoryRecord{}, err
	}

	telemetry.RecordsCreated.Inc()
	s.log.Info("search stored",
		zap.String("stage", string(StageDone)),
		zap.String("id", saved.ID),
		zap.String("resolvedLocation", saved.ResolvedLocation),
		zap.Int("days", len(saved.WeatherData)),
	)
	return saved, nil
}

// runStage executes one pipeline stage inside its own span and tags failures with the stage.
func (s *Service) runStage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "search."+strings.ToLower(string(stage)))
	defer span.End()

	s.log.Debug("search stage", zap.String("stage", string(stage)))

	if err := fn(ctx); err != nil {
		telemetry.EndSpan(span, err)
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// asUpstream leaves not-found and already classified errors alone and wraps the rest in ErrUpstream.
func asUpstream(err error) error {
	if err == nil || errors.Is(err, ErrLocationNotFound) || errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

// ListHistory returns all records, newest first.
func (s *Service) ListHistory(ctx context.Context) ([]HistoryRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("list history failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	return records, nil
}

// UpdateNote replaces the note of a record. Every other field stays as stored.
func (s *Service) UpdateNote(ctx context.Context, id, note string) (HistoryRecord, error) {
	rec, err := s.store.UpdateNote(ctx, id, note)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return HistoryRecord{}, err
		}
		s.log.Error("update note failed", zap.String("id", id), zap.Error(err))
		return HistoryRecord{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return rec, nil
}

// DeleteRecord removes a record. Absent ids succeed.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error("delete record failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	telemetry.RecordsDeleted.Inc()
	return nil
}
