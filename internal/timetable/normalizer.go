// Package timetable turns raw PDF-extracted timetable text into fixed-width
// trip tables and persists them as CSV. The normalizer is a fixed sequence of
// pure string transforms; re-running it on its own output is a no-op.
package timetable

import (
	"regexp"
	"strings"

	"patline/internal/domain"
)

// Glyphs the PDF extractor produces for "no service". The arrow is noise
// around the closed marker and is dropped; the accented character is the
// marker itself.
const (
	arrowGlyph  = "►"
	closedGlyph = "à"
)

var (
	timeDelimRe   = regexp.MustCompile(`(\d{1,2}:\d{2}[AP])`)
	multiCommaRe  = regexp.MustCompile(`,+`)
	closedJoinRe  = regexp.MustCompile(`([^,])CLOSED`)
	lineAllowedRe = regexp.MustCompile(`^[0-9:,AP]*$`)
)

// Result is the normalizer output plus diagnostics about the repairs it made.
type Result struct {
	// Rows are the normalized rows: every row has exactly
	// domain.StationCount fields except at most one trailing partial row.
	Rows [][]string

	// InferredMeridiems counts fields whose AM/PM marker was recovered by
	// the heuristic rather than read from the source.
	InferredMeridiems int

	// DroppedLines counts raw lines discarded as non-tabular noise.
	DroppedLines int
}

// Text rejoins the normalized rows into the comma-delimited document form.
func (r *Result) Text() string {
	lines := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		lines[i] = strings.Join(row, ",")
	}
	return strings.Join(lines, "\n")
}

// Normalize runs the full repair pipeline over raw extracted text. It fails
// with domain.ErrMalformedSchedule when no schedule content survives
// filtering.
func Normalize(raw string) (*Result, error) {
	text := substituteSymbols(raw)
	text = delimitTimes(text)

	lines := strings.Split(text, "\n")
	kept, dropped := filterLines(lines)

	res := &Result{DroppedLines: dropped}

	var stream []string
	for _, line := range kept {
		line = fixClosed(line)
		fields, inferred := repairMeridiems(splitFields(line))
		res.InferredMeridiems += inferred
		stream = append(stream, fields...)
	}

	if len(stream) == 0 {
		return nil, domain.ErrMalformedSchedule
	}

	res.Rows = chunkColumns(stream)
	return res, nil
}

// substituteSymbols replaces the no-service glyphs with the CLOSED token and
// strips whitespace. Times and markers are never space-separated in the
// source format, so spaces and tabs carry no information.
func substituteSymbols(text string) string {
	text = strings.ReplaceAll(text, arrowGlyph, "")
	text = strings.ReplaceAll(text, closedGlyph, domain.ClosedToken+",")
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, "\t", "")
	return strings.ReplaceAll(text, "\r", "")
}

// delimitTimes inserts a field separator after every fully qualified time,
// e.g. "12:34A" -> "12:34A,".
func delimitTimes(text string) string {
	return timeDelimRe.ReplaceAllString(text, "$1,")
}

// filterLines discards rows containing characters outside the schedule
// allow-set (digits, colon, comma, meridiem letters, the CLOSED token). PDF
// extraction interleaves page headers and station labels with the tabular
// data; any line with stray letters is noise. Blank lines survive as
// separators, not data.
func filterLines(lines []string) (kept []string, dropped int) {
	for _, line := range lines {
		if line == "" {
			kept = append(kept, line)
			continue
		}
		probe := strings.ReplaceAll(line, domain.ClosedToken, "")
		if !lineAllowedRe.MatchString(probe) {
			dropped++
			continue
		}
		kept = append(kept, line)
	}
	return kept, dropped
}

// fixClosed guarantees CLOSED is preceded by a separator unless it opens the
// line, then collapses the duplicate separators the earlier steps can leave
// behind.
func fixClosed(line string) string {
	line = closedJoinRe.ReplaceAllString(line, "$1,CLOSED")
	return multiCommaRe.ReplaceAllString(line, ",")
}

func splitFields(line string) []string {
	var fields []string
	for _, f := range strings.Split(line, ",") {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// chunkColumns flattens the surviving fields into one stream and regroups it
// into rows of exactly domain.StationCount fields. A short final group is
// emitted as-is: the source document sometimes cuts off mid-trip and the
// tail is kept rather than discarded.
func chunkColumns(stream []string) [][]string {
	var rows [][]string
	for start := 0; start < len(stream); start += domain.StationCount {
		end := start + domain.StationCount
		if end > len(stream) {
			end = len(stream)
		}
		rows = append(rows, stream[start:end])
	}
	return rows
}
