package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/weather-history/internal/weather"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = weather.ErrRecordNotFound

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: record id
	records map[string]weather.HistoryRecord
	// ids in insertion order, oldest first
	order []string

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]weather.HistoryRecord),
		now:     time.Now,
	}
}

// Create assigns an id and creation time and stores a copy of rec.
func (s *MemoryStore) Create(ctx context.Context, rec weather.HistoryRecord) (weather.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return weather.HistoryRecord{}, err
	}

	id, err := newRecordID()
	if err != nil {
		return weather.HistoryRecord{}, err
	}

	rec.ID = id
	rec.CreatedAt = creationTime(s.now())
	rec.WeatherData = cloneDays(rec.WeatherData)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = rec
	s.order = append(s.order, id)

	return cloneRecord(rec), nil
}

// List returns all records ordered by CreatedAt descending; equal timestamps keep newest insert first.
func (s *MemoryStore) List(ctx context.Context) ([]weather.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.HistoryRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, cloneRecord(s.records[s.order[i]]))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateNote replaces the note of an existing record.
func (s *MemoryStore) UpdateNote(ctx context.Context, id, note string) (weather.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return weather.HistoryRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return weather.HistoryRecord{}, ErrNotFound
	}
	rec.UserNote = note
	s.records[id] = rec

	return cloneRecord(rec), nil
}

// Delete removes the record if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func cloneRecord(rec weather.HistoryRecord) weather.HistoryRecord {
	rec.WeatherData = cloneDays(rec.WeatherData)
	return rec
}

func cloneDays(days []weather.DailyTemperature) []weather.DailyTemperature {
	if days == nil {
		return []weather.DailyTemperature{}
	}
	out := make([]weather.DailyTemperature, len(days))
	copy(out, days)
	return out
}

var _ weather.Store = (*MemoryStore)(nil)
