package store

import (
	"sync"
	"time"

	"patline/internal/domain"
)

// ScheduleStore holds the queryable trip sets, keyed by schedule date and
// direction. One pipeline run publishes both directions for a date at once;
// queries read immutable snapshots.
type ScheduleStore struct {
	mu         sync.RWMutex
	byDate     map[string]map[domain.Direction]*domain.TripSet
	latestDate string
	updatedAt  time.Time
}

func New() *ScheduleStore {
	return &ScheduleStore{
		byDate: make(map[string]map[domain.Direction]*domain.TripSet),
	}
}

// Put publishes a trip set. The latest date pointer follows lexical order,
// which for YYYY-MM-DD keys is chronological order.
func (s *ScheduleStore) Put(set domain.TripSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byDate[set.Date] == nil {
		s.byDate[set.Date] = make(map[domain.Direction]*domain.TripSet)
	}
	s.byDate[set.Date][set.Direction] = &set
	if set.Date > s.latestDate {
		s.latestDate = set.Date
	}
	s.updatedAt = time.Now()
}

// Get returns the trip set for a date and direction, if loaded.
func (s *ScheduleStore) Get(date string, dir domain.Direction) (*domain.TripSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sets, ok := s.byDate[date]
	if !ok {
		return nil, false
	}
	set, ok := sets[dir]
	return set, ok
}

// LatestDate is the most recent schedule date loaded, or "" when empty.
func (s *ScheduleStore) LatestDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestDate
}

// Dates lists every loaded schedule date.
func (s *ScheduleStore) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.byDate))
	for d := range s.byDate {
		dates = append(dates, d)
	}
	return dates
}

// TripCount totals trips across all loaded sets.
func (s *ScheduleStore) TripCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sets := range s.byDate {
		for _, set := range sets {
			n += len(set.Trips)
		}
	}
	return n
}

// HasAny reports whether at least one schedule is loaded.
func (s *ScheduleStore) HasAny() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDate) > 0
}

// UpdatedAt is the time of the last publish.
func (s *ScheduleStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
