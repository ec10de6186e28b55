// Package query answers point-to-point trip lookups against an in-memory
// TripSet. The working set is tens of trips across fourteen stations, so a
// full scan per query is cheaper than maintaining any index.
package query

import (
	"fmt"
	"sort"

	"patline/internal/domain"
)

// Result is one feasible trip between the queried stations.
type Result struct {
	DepartureTime       string `json:"departure_time"`
	ArrivalTime         string `json:"arrival_time"`
	SourceStation       string `json:"source_station"`
	DestinationStation  string `json:"destination_station"`
	TripID              string `json:"trip_id"`
	DiffersFromBaseline bool   `json:"differs_from_baseline"`
}

// Run scans every trip in the set and returns the ones serving both stations,
// ordered by departure time.
//
// Index-ordering consistency (westbound travels toward increasing indices,
// eastbound toward decreasing) yields an empty result rather than an error:
// "no such route in this direction" is a valid answer. Precondition
// violations on the indices themselves return *domain.InvalidQueryError.
func Run(set *domain.TripSet, sourceIdx, destIdx int) ([]Result, error) {
	if sourceIdx < 0 || sourceIdx >= domain.StationCount {
		return nil, &domain.InvalidQueryError{
			Constraint: fmt.Sprintf("source station index must be between 0 and %d", domain.StationCount-1),
		}
	}
	if destIdx < 0 || destIdx >= domain.StationCount {
		return nil, &domain.InvalidQueryError{
			Constraint: fmt.Sprintf("destination station index must be between 0 and %d", domain.StationCount-1),
		}
	}
	if sourceIdx == destIdx {
		return nil, &domain.InvalidQueryError{
			Constraint: "source and destination stations must be different",
		}
	}

	if !orderedForDirection(set.Direction, sourceIdx, destIdx) {
		return []Result{}, nil
	}

	sourceName, err := domain.StationName(set.Direction, sourceIdx)
	if err != nil {
		return nil, err
	}
	destName, err := domain.StationName(set.Direction, destIdx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		res     Result
		minutes int
	}
	var candidates []candidate

	for i := range set.Trips {
		trip := &set.Trips[i]
		departure := trip.Times[sourceIdx]
		arrival := trip.Times[destIdx]
		if departure.Closed || arrival.Closed {
			continue
		}

		candidates = append(candidates, candidate{
			res: Result{
				DepartureTime:       departure.String(),
				ArrivalTime:         arrival.String(),
				SourceStation:       sourceName,
				DestinationStation:  destName,
				TripID:              trip.ID,
				DiffersFromBaseline: trip.DiffersFromBaseline,
			},
			// CLOSED is excluded above, so the sentinel only marks
			// times that failed to parse; they sort last.
			minutes: departure.Minutes(),
		})
	}

	// Stable sort keeps source-document order for equal departures.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].minutes < candidates[b].minutes
	})

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = c.res
	}
	return results, nil
}

func orderedForDirection(d domain.Direction, sourceIdx, destIdx int) bool {
	if d == domain.DirectionEastbound {
		return sourceIdx > destIdx
	}
	return sourceIdx < destIdx
}
