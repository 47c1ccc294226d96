package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/i474232898/weather-history/internal/weather"
)

// historyEntity is the GORM model for the weather_history table.
type historyEntity struct {
	ID               string                     `gorm:"primaryKey;size:36"`
	SearchQuery      string                     `gorm:"not null"`
	ResolvedLocation string                     `gorm:"not null"`
	Latitude         float64                    `gorm:"not null"`
	Longitude        float64                    `gorm:"not null"`
	StartDate        string                     `gorm:"size:10;not null"`
	EndDate          string                     `gorm:"size:10;not null"`
	WeatherData      []weather.DailyTemperature `gorm:"type:text;serializer:json"`
	UserNote         string                     `gorm:"not null"`
	CreatedAt        time.Time                  `gorm:"index;not null"`
}

func (historyEntity) TableName() string {
	return "weather_history"
}

func (e historyEntity) toRecord() weather.HistoryRecord {
	return weather.HistoryRecord{
		ID:               e.ID,
		SearchQuery:      e.SearchQuery,
		ResolvedLocation: e.ResolvedLocation,
		Latitude:         e.Latitude,
		Longitude:        e.Longitude,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		WeatherData:      cloneDays(e.WeatherData),
		UserNote:         e.UserNote,
		CreatedAt:        e.CreatedAt.UTC(),
	}
}

// SQLStore implements weather.Store on top of GORM (SQLite or PostgreSQL).
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQL connects with the given driver ("sqlite" or "postgres") and migrates the schema.
func OpenSQL(driver, dsn string, verbose bool, log *zap.Logger) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	logLevel := logger.Silent
	if verbose {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// SQLite serializes writers; one connection avoids "database is locked".
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	s, err := NewSQLStore(db)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("sql history store ready", zap.String("driver", driver))
	}
	return s, nil
}

// NewSQLStore wraps an open connection and migrates the history table.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&historyEntity{}); err != nil {
		return nil, fmt.Errorf("migrate weather_history: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) Create(ctx context.Context, rec weather.HistoryRecord) (weather.HistoryRecord, error) {
	id, err := newRecordID()
	if err != nil {
		return weather.HistoryRecord{}, err
	}

	row := historyEntity{
		ID:               id,
		SearchQuery:      rec.SearchQuery,
		ResolvedLocation: rec.ResolvedLocation,
		Latitude:         rec.Latitude,
		Longitude:        rec.Longitude,
		StartDate:        rec.StartDate,
		EndDate:          rec.EndDate,
		WeatherData:      cloneDays(rec.WeatherData),
		UserNote:         rec.UserNote,
		CreatedAt:        creationTime(s.now()),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return weather.HistoryRecord{}, fmt.Errorf("insert history record: %w", err)
	}
	return row.toRecord(), nil
}

func (s *SQLStore) List(ctx context.Context) ([]weather.HistoryRecord, error) {
	var rows []historyEntity
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}

	records := make([]weather.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (s *SQLStore) UpdateNote(ctx context.Context, id, note string) (weather.HistoryRecord, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&historyEntity{}).Where("id = ?", id).Update("user_note", note)
	if res.Error != nil {
		return weather.HistoryRecord{}, fmt.Errorf("update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return weather.HistoryRecord{}, ErrNotFound
	}

	var row historyEntity
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return weather.HistoryRecord{}, ErrNotFound
		}
		return weather.HistoryRecord{}, fmt.Errorf("load history record: %w", err)
	}
	return row.toRecord(), nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&historyEntity{}).Error; err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	return nil
}

var _ weather.Store = (*SQLStore)(nil)
