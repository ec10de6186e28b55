package timetable

import "patline/internal/domain"

// SplitDirections separates a normalized table into its westbound and
// eastbound halves. The source document lists westbound trips first; the
// handoff shows up as the only place a row ending in the evening is followed
// by a row starting in the early morning. The split is declared at the first
// adjacent pair where the last served time of row i is PM and the first
// served time of row i+1 is AM. With no such pair the whole table is
// westbound.
func SplitDirections(rows [][]string) (west, east [][]string) {
	split := len(rows)
	for i := 0; i+1 < len(rows); i++ {
		last, ok := lastServedTime(rows[i])
		if !ok || !last.IsPM() {
			continue
		}
		first, ok := firstServedTime(rows[i+1])
		if ok && first.IsAM() {
			split = i + 1
			break
		}
	}

	return trimBlankRows(rows[:split]), trimBlankRows(rows[split:])
}

func firstServedTime(row []string) (domain.TimeValue, bool) {
	for _, f := range row {
		if f == domain.ClosedToken {
			continue
		}
		if tv, err := domain.ParseTimeValue(f); err == nil {
			return tv, true
		}
		return domain.TimeValue{}, false
	}
	return domain.TimeValue{}, false
}

func lastServedTime(row []string) (domain.TimeValue, bool) {
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] == domain.ClosedToken {
			continue
		}
		if tv, err := domain.ParseTimeValue(row[i]); err == nil {
			return tv, true
		}
		return domain.TimeValue{}, false
	}
	return domain.TimeValue{}, false
}

func trimBlankRows(rows [][]string) [][]string {
	start, end := 0, len(rows)
	for start < end && blankRow(rows[start]) {
		start++
	}
	for end > start && blankRow(rows[end-1]) {
		end--
	}
	return rows[start:end]
}

func blankRow(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}
