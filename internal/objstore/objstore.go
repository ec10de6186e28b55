// Package objstore is the durable-storage collaborator: a date-keyed object
// namespace holding the persisted schedule CSVs, with signed time-limited
// read URLs for distribution to end clients.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"patline/internal/domain"
)

// ErrNotFound is returned by Read and LastModified for missing keys.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the keyed store contract the pipeline writes to and the
// files endpoint reads from.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	LastModified(ctx context.Context, key string) (time.Time, error)
	SignedURL(key string, expires time.Duration) (string, error)
}

// SpecialScheduleKey is the artifact path for one direction of one special
// schedule date.
func SpecialScheduleKey(date string, dir domain.Direction) string {
	return fmt.Sprintf("schedules/special/%s/special_schedule_%s.csv", date, dir)
}

// ScheduleCategory buckets dates for routine-schedule lookup.
type ScheduleCategory string

const (
	CategoryWeekday  ScheduleCategory = "weekday"
	CategorySaturday ScheduleCategory = "saturday"
	CategorySunday   ScheduleCategory = "sunday"
)

// CategoryFor maps a date to its routine-schedule bucket.
func CategoryFor(t time.Time) ScheduleCategory {
	switch t.Weekday() {
	case time.Saturday:
		return CategorySaturday
	case time.Sunday:
		return CategorySunday
	default:
		return CategoryWeekday
	}
}

// RegularScheduleKey is the routine (baseline) schedule path for a category
// and direction. The prefix is an external configuration concern.
func RegularScheduleKey(prefix string, cat ScheduleCategory, dir domain.Direction) string {
	return fmt.Sprintf("%s/%s/%s.csv", prefix, cat, dir)
}
