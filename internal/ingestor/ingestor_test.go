package ingestor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patline/internal/config"
	"patline/internal/domain"
	"patline/internal/hub"
	"patline/internal/objstore"
	"patline/internal/store"
	"patline/pkg/patcoweb"
)

type stubSource struct {
	info *patcoweb.ScheduleInfo
	err  error
}

func (s *stubSource) FetchScheduleInfo(context.Context) (*patcoweb.ScheduleInfo, error) {
	return s.info, s.err
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(context.Context, string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubPublisher struct {
	events []hub.ScheduleEvent
}

func (s *stubPublisher) Publish(event hub.ScheduleEvent) {
	s.events = append(s.events, event)
}

// rawLine renders a run of qualified times starting at hour:minute, the way
// they appear in extracted PDF text: back to back with no separators.
func rawLine(hour, minute int, meridiem byte) string {
	var sb strings.Builder
	for i := 0; i < domain.StationCount; i++ {
		fmt.Fprintf(&sb, "%d:%02d%c", hour, minute+i, meridiem)
	}
	return sb.String()
}

// rawSchedule is a minimal two-direction document: two westbound rows ending
// late evening, then two eastbound rows starting after midnight.
func rawSchedule() string {
	return strings.Join([]string{
		"PATCO Special Schedule",
		rawLine(6, 0, 'A'),
		rawLine(11, 40, 'P'),
		rawLine(12, 5, 'A'),
		rawLine(5, 0, 'P'),
	}, "\n")
}

func specialInfo() *patcoweb.ScheduleInfo {
	return &patcoweb.ScheduleInfo{
		HasSpecialSchedule:    true,
		SpecialSchedulePDFURL: "https://example.org/special.pdf",
		SpecialScheduleText:   "Saturday, August 29, 2026",
		FetchedAt:             time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		PollInterval:          time.Hour,
		RegularSchedulePrefix: "schedules/regular",
		CacheTTL:              time.Minute,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollProcessesSpecialSchedule(t *testing.T) {
	objects := objstore.NewMemoryStore()
	schedules := store.New()
	publisher := &stubPublisher{}
	extractor := &stubExtractor{text: rawSchedule()}

	ing := New(&stubSource{info: specialInfo()}, extractor, objects, schedules, nil, publisher, testConfig(), discardLogger())
	ing.poll(context.Background())

	assert.True(t, ing.IsReady())

	west, ok := schedules.Get("2026-08-29", domain.DirectionWestbound)
	require.True(t, ok)
	require.Len(t, west.Trips, 2)
	assert.Equal(t, "6:00A", west.Trips[0].Times[0].String())
	assert.Equal(t, "11:53P", west.Trips[1].Times[13].String())

	east, ok := schedules.Get("2026-08-29", domain.DirectionEastbound)
	require.True(t, ok)
	require.Len(t, east.Trips, 2)
	assert.Equal(t, "12:18A", east.Trips[0].Times[0].String(), "eastbound rows are read right to left")

	for _, dir := range domain.Directions {
		exists, err := objects.Exists(context.Background(), objstore.SpecialScheduleKey("2026-08-29", dir))
		require.NoError(t, err)
		assert.True(t, exists, "artifact for %s", dir)
	}

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, "2026-08-29", event.Date)
	assert.True(t, event.Special)
	assert.Equal(t, 2, event.TripCounts[domain.DirectionWestbound])
	assert.Equal(t, 2, event.TripCounts[domain.DirectionEastbound])
	assert.False(t, event.Baseline[domain.DirectionWestbound], "no routine schedule in storage")
}

func TestPollFlagsAgainstBaseline(t *testing.T) {
	objects := objstore.NewMemoryStore()
	schedules := store.New()

	// August 29 2026 is a Saturday; seed that bucket's routine schedule
	// with the early trip only.
	var fields []string
	for i := 0; i < domain.StationCount; i++ {
		fields = append(fields, fmt.Sprintf("6:%02dA", i))
	}
	key := objstore.RegularScheduleKey("schedules/regular", objstore.CategorySaturday, domain.DirectionWestbound)
	require.NoError(t, objects.Write(context.Background(), key, []byte(strings.Join(fields, ",")+"\n"), "text/csv"))

	ing := New(&stubSource{info: specialInfo()}, &stubExtractor{text: rawSchedule()}, objects, schedules, nil, nil, testConfig(), discardLogger())
	ing.poll(context.Background())

	west, ok := schedules.Get("2026-08-29", domain.DirectionWestbound)
	require.True(t, ok)
	assert.True(t, west.BaselineApplied)
	assert.False(t, west.Trips[0].DiffersFromBaseline)
	assert.True(t, west.Trips[1].DiffersFromBaseline)

	east, ok := schedules.Get("2026-08-29", domain.DirectionEastbound)
	require.True(t, ok)
	assert.False(t, east.BaselineApplied, "no eastbound routine schedule seeded")
}

func TestPollNoSpecialSchedule(t *testing.T) {
	schedules := store.New()
	info := &patcoweb.ScheduleInfo{FetchedAt: time.Now()}

	ing := New(&stubSource{info: info}, &stubExtractor{}, objstore.NewMemoryStore(), schedules, nil, nil, testConfig(), discardLogger())
	ing.poll(context.Background())

	assert.True(t, ing.IsReady(), "a day without a special schedule is a healthy day")
	assert.False(t, schedules.HasAny())
}

func TestPollFetchError(t *testing.T) {
	ing := New(&stubSource{err: errors.New("site down")}, &stubExtractor{}, objstore.NewMemoryStore(), store.New(), nil, nil, testConfig(), discardLogger())
	ing.poll(context.Background())

	assert.False(t, ing.IsReady())
}

func TestPollWarmLoadsPersistedArtifacts(t *testing.T) {
	objects := objstore.NewMemoryStore()

	first := New(&stubSource{info: specialInfo()}, &stubExtractor{text: rawSchedule()}, objects, store.New(), nil, nil, testConfig(), discardLogger())
	first.poll(context.Background())

	// A restarted process finds the artifacts already written and never
	// re-runs extraction.
	schedules := store.New()
	extractor := &stubExtractor{err: errors.New("extractor must not be called")}
	second := New(&stubSource{info: specialInfo()}, extractor, objects, schedules, nil, nil, testConfig(), discardLogger())
	second.poll(context.Background())

	assert.True(t, second.IsReady())
	assert.Zero(t, extractor.calls)

	west, ok := schedules.Get("2026-08-29", domain.DirectionWestbound)
	require.True(t, ok)
	assert.Len(t, west.Trips, 2)
}

func TestPollExtractionFailure(t *testing.T) {
	schedules := store.New()
	ing := New(&stubSource{info: specialInfo()}, &stubExtractor{err: errors.New("service unavailable")}, objstore.NewMemoryStore(), schedules, nil, nil, testConfig(), discardLogger())
	ing.poll(context.Background())

	assert.False(t, ing.IsReady())
	assert.False(t, schedules.HasAny())
}

func TestScheduleDate(t *testing.T) {
	assert.Equal(t, "2026-08-29", scheduleDate(specialInfo()))

	noDate := specialInfo()
	noDate.SpecialScheduleText = "Special Schedule In Effect"
	assert.Equal(t, "2026-08-27", scheduleDate(noDate), "falls back to the fetch date")
}
