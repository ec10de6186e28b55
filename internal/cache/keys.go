package cache

import (
	"fmt"

	"patline/internal/domain"
)

func KeyTripQuery(date string, dir domain.Direction, sourceIdx, destIdx int) string {
	return fmt.Sprintf("trips:%s:%s:%d:%d", date, dir, sourceIdx, destIdx)
}

// KeyTripQueryPattern matches every cached query for a date, for
// invalidation on publish.
func KeyTripQueryPattern(date string) string {
	return fmt.Sprintf("trips:%s:*", date)
}

func KeyScheduleCSV(date string, dir domain.Direction) string {
	return fmt.Sprintf("csv:%s:%s", date, dir)
}
