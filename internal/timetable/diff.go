package timetable

import (
	"strings"

	"patline/internal/domain"
)

// Baseline is the set of canonical row strings from the routine schedule for
// one direction. A special-schedule trip whose row is absent from it is an
// actual deviation.
type Baseline map[string]struct{}

// ParseBaseline reads a routine-schedule CSV document into a Baseline. Only
// the station fields participate; a trailing true/false flag field, if some
// earlier run appended one, is ignored.
func ParseBaseline(csvText string) Baseline {
	b := make(Baseline)
	for _, line := range strings.Split(csvText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) > domain.StationCount {
			fields = fields[:domain.StationCount]
		}
		b[strings.Join(fields, ",")] = struct{}{}
	}
	return b
}

// FlagDifferences marks every trip whose canonical row is missing from the
// baseline. A nil baseline (read failure upstream) leaves all flags false;
// flagging never aborts a pipeline run.
func FlagDifferences(set *domain.TripSet, baseline Baseline) {
	if baseline == nil {
		set.BaselineApplied = false
		return
	}
	for i := range set.Trips {
		_, known := baseline[set.Trips[i].CanonicalRow()]
		set.Trips[i].DiffersFromBaseline = !known
	}
	set.BaselineApplied = true
}
