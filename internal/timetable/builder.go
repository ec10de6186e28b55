package timetable

import (
	"fmt"

	"patline/internal/domain"
)

// BuildTrips converts one direction's normalized rows into a TripSet.
//
// Eastbound rows are printed in the source document in the same left-to-right
// physical order as westbound ones, so they read backwards relative to the
// eastbound registry; each eastbound row is reversed before alignment. A
// trailing partial row (lossless tail from column normalization) is padded
// with CLOSED so every trip owns exactly one entry per station.
//
// Rows with an unparseable field are rejected individually and returned as
// errors; the rest of the table still builds.
func BuildTrips(rows [][]string, dir domain.Direction, date string) (domain.TripSet, []error) {
	set := domain.TripSet{Date: date, Direction: dir}
	var rejected []error

	for i, row := range rows {
		fields := make([]string, len(row))
		copy(fields, row)
		if dir == domain.DirectionEastbound {
			reverse(fields)
		}
		for len(fields) < domain.StationCount {
			if dir == domain.DirectionEastbound {
				fields = append([]string{domain.ClosedToken}, fields...)
			} else {
				fields = append(fields, domain.ClosedToken)
			}
		}

		trip := domain.Trip{
			ID:        domain.TripID(dir, len(set.Trips)),
			Direction: dir,
			Index:     len(set.Trips),
			Times:     make([]domain.TimeValue, domain.StationCount),
		}

		bad := false
		for j, f := range fields[:domain.StationCount] {
			tv, err := domain.ParseTimeValue(f)
			if err != nil {
				rejected = append(rejected, fmt.Errorf("%s row %d field %d: %w", dir, i, j, err))
				bad = true
				break
			}
			trip.Times[j] = tv
		}
		if bad {
			continue
		}

		set.Trips = append(set.Trips, trip)
	}

	return set, rejected
}

func reverse(fields []string) {
	for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
		fields[i], fields[j] = fields[j], fields[i]
	}
}
