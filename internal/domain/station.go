package domain

import "fmt"

// Direction identifies which way a trip travels along the line.
type Direction string

const (
	DirectionWestbound Direction = "westbound"
	DirectionEastbound Direction = "eastbound"
)

// Directions lists both directions in the order schedules are published.
var Directions = []Direction{DirectionWestbound, DirectionEastbound}

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionWestbound:
		return DirectionWestbound, nil
	case DirectionEastbound:
		return DirectionEastbound, nil
	default:
		return "", &InvalidQueryError{Constraint: "direction must be eastbound or westbound"}
	}
}

// stationsWestbound is the canonical station order. Index semantics are fixed
// for the life of the process: index i always refers to the same physical
// station within a given direction's registry.
var stationsWestbound = []string{
	"15th-16th & Locust",
	"12th-13th & Locust",
	"9th-10th & Locust",
	"8th & Market",
	"City Hall",
	"Broadway",
	"Franklin Square",
	"Collingswood",
	"Westmont",
	"Haddonfield",
	"Woodcrest",
	"Ashland",
	"Woodlyn",
	"Lindenwold",
}

// StationCount is the fixed number of stations on the line.
const StationCount = 14

// Registry returns the ordered station names for a direction. The eastbound
// registry is the exact reverse of the westbound one. Callers get a fresh
// slice so the canonical order cannot be mutated.
func Registry(d Direction) []string {
	out := make([]string, StationCount)
	if d == DirectionEastbound {
		for i, name := range stationsWestbound {
			out[StationCount-1-i] = name
		}
		return out
	}
	copy(out, stationsWestbound)
	return out
}

// StationName returns the name at index i in the direction's registry.
func StationName(d Direction, i int) (string, error) {
	if i < 0 || i >= StationCount {
		return "", fmt.Errorf("station index %d out of range [0,%d)", i, StationCount)
	}
	if d == DirectionEastbound {
		return stationsWestbound[StationCount-1-i], nil
	}
	return stationsWestbound[i], nil
}
