package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// ClosedToken is the sentinel used in schedule rows for stations a trip
// does not serve.
const ClosedToken = "CLOSED"

// InvalidMinutes sorts after every valid time of day (max valid is 23*60+59).
const InvalidMinutes = 9999

var timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})([AP])$`)

// BareTimeRe matches a time that is missing its meridiem letter. Exported for
// the normalizer, which repairs such fields before parsing.
var BareTimeRe = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// TimeValue is one entry in a trip's schedule: either a 12-hour wall-clock
// time or the CLOSED sentinel. After the pipeline completes a TimeValue is
// always exactly one of the two; there is no partial state.
type TimeValue struct {
	Hour     int
	Minute   int
	Meridiem byte // 'A' or 'P'
	Closed   bool

	// Inferred records that the meridiem came from the repair heuristic
	// rather than the source document. Not part of the persisted CSV.
	Inferred bool
}

// ClosedTime is the CLOSED variant.
func ClosedTime() TimeValue {
	return TimeValue{Closed: true}
}

// ParseTimeValue parses a normalized schedule field: "H:MMA", "H:MMP" or
// "CLOSED".
func ParseTimeValue(field string) (TimeValue, error) {
	if field == ClosedToken {
		return ClosedTime(), nil
	}

	m := timeRe.FindStringSubmatch(field)
	if m == nil {
		return TimeValue{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, field)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return TimeValue{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, field)
	}

	return TimeValue{Hour: hour, Minute: minute, Meridiem: m[3][0]}, nil
}

func (t TimeValue) String() string {
	if t.Closed {
		return ClosedToken
	}
	return fmt.Sprintf("%d:%02d%c", t.Hour, t.Minute, t.Meridiem)
}

// Minutes converts to minutes since midnight using 12-hour rules: 12AM is 0
// and 12PM is 720. CLOSED and malformed values return InvalidMinutes so they
// sort after every real departure.
func (t TimeValue) Minutes() int {
	if t.Closed || t.Hour < 1 || t.Hour > 12 || t.Minute < 0 || t.Minute > 59 {
		return InvalidMinutes
	}

	hour := t.Hour % 12
	if t.Meridiem == 'P' {
		hour += 12
	} else if t.Meridiem != 'A' {
		return InvalidMinutes
	}
	return hour*60 + t.Minute
}

// IsAM reports whether the value is a valid AM time.
func (t TimeValue) IsAM() bool {
	return !t.Closed && t.Meridiem == 'A' && t.Minutes() != InvalidMinutes
}

// IsPM reports whether the value is a valid PM time.
func (t TimeValue) IsPM() bool {
	return !t.Closed && t.Meridiem == 'P' && t.Minutes() != InvalidMinutes
}
