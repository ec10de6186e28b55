package domain

import (
	"fmt"
	"strings"
)

// Trip is one scheduled run of the train: exactly one TimeValue per station,
// aligned to the direction's registry. Trips are immutable once built.
type Trip struct {
	ID        string      `json:"tripId"`
	Direction Direction   `json:"direction"`
	Index     int         `json:"index"`
	Times     []TimeValue `json:"-"`

	// DiffersFromBaseline is set when the trip's row is absent from the
	// routine schedule for the same direction, i.e. this special-schedule
	// entry is an actual deviation.
	DiffersFromBaseline bool `json:"differsFromBaseline"`
}

// TripID builds the stable identifier for a trip at a given row position.
func TripID(d Direction, index int) string {
	return fmt.Sprintf("%s-trip-%04d", d, index+1)
}

// CanonicalRow is the trip's fields rejoined with the field separator,
// without the difference flag. It is the representation compared against the
// baseline set.
func (t *Trip) CanonicalRow() string {
	fields := make([]string, len(t.Times))
	for i, tv := range t.Times {
		fields[i] = tv.String()
	}
	return strings.Join(fields, ",")
}

// TripSet is every trip for one direction of one schedule date, in source
// document order. Built once per pipeline run and read-only afterwards.
type TripSet struct {
	Date      string
	Direction Direction
	Trips     []Trip

	// BaselineApplied records whether difference flags are meaningful; when
	// the baseline read failed the flags are all false and this is unset.
	BaselineApplied bool
}
