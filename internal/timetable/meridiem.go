package timetable

import (
	"strconv"
	"strings"

	"patline/internal/domain"
)

// repairMeridiems fills in missing AM/PM markers across one row's fields and
// reports how many were inferred. Fields that are neither times nor CLOSED
// pass through untouched; they are rejected later by the trip builder.
func repairMeridiems(fields []string) ([]string, int) {
	inferred := 0
	out := make([]string, len(fields))
	copy(out, fields)

	for i, f := range out {
		if !domain.BareTimeRe.MatchString(f) {
			continue
		}
		out[i] = f + string(InferMeridiem(out, i))
		inferred++
	}
	return out, inferred
}

// InferMeridiem recovers the missing meridiem for the bare time at fields[i].
//
// This is a best-effort heuristic, not a proof. It scans backward for the
// nearest fully qualified time and assumes the meridiem is unchanged when the
// hours are non-decreasing or the drop is small; a large drop means the clock
// wrapped and the meridiem flipped. With no prior reference it scans forward
// with the symmetric rule, and with no reference at all it falls back to AM
// for hours up to 11. The fallback is arbitrary for sparse rows (for example
// a bare time surrounded by CLOSED) and is deliberately not hardened further.
//
// Hours are compared mod 12 so the 12 o'clock rollover (12:50P then 1:05
// stays PM) behaves like every other hour step.
func InferMeridiem(fields []string, i int) byte {
	hour := bareHour(fields[i])

	for j := i - 1; j >= 0; j-- {
		if m, priorHour, ok := qualifiedTime(fields[j]); ok {
			if hour%12 >= priorHour%12 || priorHour%12-hour%12 <= 2 {
				return m
			}
			return flip(m)
		}
	}

	for j := i + 1; j < len(fields); j++ {
		if m, nextHour, ok := qualifiedTime(fields[j]); ok {
			if hour%12 <= nextHour%12 || hour%12-nextHour%12 <= 2 {
				return m
			}
			return flip(m)
		}
	}

	if hour <= 11 {
		return 'A'
	}
	return 'P'
}

func bareHour(field string) int {
	h, _ := strconv.Atoi(field[:strings.IndexByte(field, ':')])
	return h
}

// qualifiedTime reports the meridiem and hour of a field that is a complete
// time with a known meridiem.
func qualifiedTime(field string) (meridiem byte, hour int, ok bool) {
	tv, err := domain.ParseTimeValue(field)
	if err != nil || tv.Closed {
		return 0, 0, false
	}
	return tv.Meridiem, tv.Hour, true
}

func flip(m byte) byte {
	if m == 'A' {
		return 'P'
	}
	return 'A'
}
