package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/weather-history/internal/weather"
)

// Open builds the store selected by driver: "memory", "sqlite" or "postgres".
// The returned close function is never nil.
func Open(driver, dsn string, verbose bool, log *zap.Logger) (weather.Store, func() error, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	case "sqlite", "postgres":
		s, err := OpenSQL(driver, dsn, verbose, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
