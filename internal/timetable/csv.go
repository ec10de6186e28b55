package timetable

import (
	"fmt"
	"strconv"
	"strings"

	"patline/internal/domain"
)

// EncodeTripSet renders the persisted CSV artifact: one row per trip, each
// with exactly one field per station, plus a trailing true/false difference
// flag when a baseline was available for the run.
func EncodeTripSet(set *domain.TripSet) string {
	var sb strings.Builder
	for i := range set.Trips {
		sb.WriteString(set.Trips[i].CanonicalRow())
		if set.BaselineApplied {
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatBool(set.Trips[i].DiffersFromBaseline))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DecodeTripSet reads a persisted CSV artifact back into a TripSet, used to
// warm-load schedules written by an earlier run. Tolerates rows with or
// without the trailing flag field.
func DecodeTripSet(csvText string, dir domain.Direction, date string) (domain.TripSet, error) {
	set := domain.TripSet{Date: date, Direction: dir}

	for _, line := range strings.Split(csvText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")

		differs := false
		if len(fields) == domain.StationCount+1 {
			flag, err := strconv.ParseBool(fields[domain.StationCount])
			if err != nil {
				return domain.TripSet{}, fmt.Errorf("row %d: bad difference flag %q", len(set.Trips), fields[domain.StationCount])
			}
			differs = flag
			set.BaselineApplied = true
			fields = fields[:domain.StationCount]
		}
		if len(fields) != domain.StationCount {
			return domain.TripSet{}, fmt.Errorf("row %d: %d fields, want %d", len(set.Trips), len(fields), domain.StationCount)
		}

		trip := domain.Trip{
			ID:                  domain.TripID(dir, len(set.Trips)),
			Direction:           dir,
			Index:               len(set.Trips),
			Times:               make([]domain.TimeValue, domain.StationCount),
			DiffersFromBaseline: differs,
		}
		for j, f := range fields {
			tv, err := domain.ParseTimeValue(f)
			if err != nil {
				return domain.TripSet{}, fmt.Errorf("row %d field %d: %w", len(set.Trips), j, err)
			}
			trip.Times[j] = tv
		}
		set.Trips = append(set.Trips, trip)
	}

	return set, nil
}
