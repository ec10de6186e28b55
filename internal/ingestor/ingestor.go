// Package ingestor orchestrates one schedule date end to end: scrape the
// schedules page, pull the special schedule PDF text, normalize it, flag
// deviations against the routine schedule, persist the CSVs and publish the
// trip sets for querying.
package ingestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"patline/internal/cache"
	"patline/internal/config"
	"patline/internal/domain"
	"patline/internal/hub"
	"patline/internal/metrics"
	"patline/internal/objstore"
	"patline/internal/store"
	"patline/internal/timetable"
	"patline/pkg/patcoweb"
)

// ScheduleSource provides the scraped schedules-page metadata.
type ScheduleSource interface {
	FetchScheduleInfo(ctx context.Context) (*patcoweb.ScheduleInfo, error)
}

// TextExtractor turns a schedule PDF URL into one raw text string.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfURL string) (string, error)
}

// Publisher receives schedule-update events for fanout to clients.
type Publisher interface {
	Publish(event hub.ScheduleEvent)
}

var specialDateRe = regexp.MustCompile(`(\w+), (\w+ \d{1,2}, \d{4})`)

type Ingestor struct {
	source    ScheduleSource
	extractor TextExtractor
	objects   objstore.ObjectStore
	schedules *store.ScheduleStore
	cache     *cache.RedisCache
	publisher Publisher
	config    *config.Config
	logger    *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

func New(source ScheduleSource, extractor TextExtractor, objects objstore.ObjectStore, schedules *store.ScheduleStore, c *cache.RedisCache, publisher Publisher, cfg *config.Config, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		source:    source,
		extractor: extractor,
		objects:   objects,
		schedules: schedules,
		cache:     c,
		publisher: publisher,
		config:    cfg,
		logger:    logger.With("component", "ingestor"),
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so the service is queryable as soon as a schedule exists.
func (i *Ingestor) Run(ctx context.Context) {
	ticker := time.NewTicker(i.config.PollInterval)
	defer ticker.Stop()

	i.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.poll(ctx)
		}
	}
}

func (i *Ingestor) poll(ctx context.Context) {
	runID := uuid.New().String()
	logger := i.logger.With("run_id", runID)
	start := time.Now()

	info, err := i.source.FetchScheduleInfo(ctx)
	if err != nil {
		logger.Error("failed to fetch schedule info", "error", err)
		metrics.PipelineRuns.WithLabelValues("fetch_error").Inc()
		return
	}

	if !info.HasSpecialSchedule {
		logger.Info("no special schedule posted today")
		i.setReady(true)
		metrics.PipelineRuns.WithLabelValues("no_special").Inc()
		return
	}

	date := scheduleDate(info)
	logger = logger.With("schedule_date", date)

	if loaded := i.warmLoad(ctx, date, logger); loaded {
		logger.Info("schedule already processed, loaded persisted artifacts")
		i.setReady(true)
		metrics.PipelineRuns.WithLabelValues("already_processed").Inc()
		return
	}

	if err := i.process(ctx, info, date, runID, logger); err != nil {
		logger.Error("pipeline run failed", "error", err)
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return
	}

	i.setReady(true)
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	logger.Info("pipeline run completed", "duration_ms", time.Since(start).Milliseconds())
}

// process runs the normalization pipeline for one date. Stages are pure:
// nothing is persisted unless the whole run produced a consistent pair of
// direction tables.
func (i *Ingestor) process(ctx context.Context, info *patcoweb.ScheduleInfo, date, runID string, logger *slog.Logger) error {
	raw, err := i.extractor.ExtractText(ctx, info.SpecialSchedulePDFURL)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	result, err := timetable.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	metrics.MeridiemsInferred.Add(float64(result.InferredMeridiems))
	logger.Info("normalized schedule text",
		"rows", len(result.Rows),
		"dropped_lines", result.DroppedLines,
		"inferred_meridiems", result.InferredMeridiems,
	)

	west, east := timetable.SplitDirections(result.Rows)
	logger.Debug("split directions", "westbound_rows", len(west), "eastbound_rows", len(east))

	baselineDay, _ := time.Parse("2006-01-02", date)
	sets := make(map[domain.Direction]*domain.TripSet, 2)
	for dir, rows := range map[domain.Direction][][]string{
		domain.DirectionWestbound: west,
		domain.DirectionEastbound: east,
	} {
		set, rejected := timetable.BuildTrips(rows, dir, date)
		for _, rerr := range rejected {
			logger.Warn("rejected schedule row", "error", rerr)
		}
		metrics.RowsRejected.Add(float64(len(rejected)))

		timetable.FlagDifferences(&set, i.loadBaseline(ctx, baselineDay, dir, logger))
		sets[dir] = &set
	}

	if len(sets[domain.DirectionWestbound].Trips)+len(sets[domain.DirectionEastbound].Trips) == 0 {
		return domain.ErrMalformedSchedule
	}

	// Direction tables are complete and consistent; only now touch storage.
	for dir, set := range sets {
		csvText := timetable.EncodeTripSet(set)
		key := objstore.SpecialScheduleKey(date, dir)
		if err := i.objects.Write(ctx, key, []byte(csvText), "text/csv"); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
		logger.Info("persisted schedule artifact", "key", key, "trips", len(set.Trips))

		if i.cache != nil {
			if err := i.cache.SetCompressed(ctx, cache.KeyScheduleCSV(date, dir), []byte(csvText), i.config.CacheTTL); err != nil {
				logger.Warn("failed to cache schedule CSV", "error", err)
			}
		}
	}

	for _, set := range sets {
		i.schedules.Put(*set)
	}
	i.invalidateQueries(ctx, date, logger)
	i.announce(date, runID, sets)
	return nil
}

// warmLoad pulls previously persisted artifacts for a date into the store.
// Returns true only when both directions loaded.
func (i *Ingestor) warmLoad(ctx context.Context, date string, logger *slog.Logger) bool {
	if _, ok := i.schedules.Get(date, domain.DirectionWestbound); ok {
		return true
	}

	sets := make(map[domain.Direction]*domain.TripSet, 2)
	for _, dir := range domain.Directions {
		key := objstore.SpecialScheduleKey(date, dir)
		exists, err := i.objects.Exists(ctx, key)
		if err != nil || !exists {
			return false
		}
		data, err := i.objects.Read(ctx, key)
		if err != nil {
			logger.Warn("failed to read persisted schedule", "key", key, "error", err)
			return false
		}
		set, err := timetable.DecodeTripSet(string(data), dir, date)
		if err != nil {
			logger.Warn("persisted schedule is corrupt, reprocessing", "key", key, "error", err)
			return false
		}
		sets[dir] = &set
	}

	for _, set := range sets {
		i.schedules.Put(*set)
	}
	return true
}

// loadBaseline reads the routine schedule for the date's day-of-week
// category. A nil return degrades difference flagging to all-false.
func (i *Ingestor) loadBaseline(ctx context.Context, day time.Time, dir domain.Direction, logger *slog.Logger) timetable.Baseline {
	key := objstore.RegularScheduleKey(i.config.RegularSchedulePrefix, objstore.CategoryFor(day), dir)
	data, err := i.objects.Read(ctx, key)
	if err != nil {
		logger.Warn("difference flagging degraded",
			"key", key,
			"error", errors.Join(domain.ErrBaselineUnavailable, err),
		)
		return nil
	}
	return timetable.ParseBaseline(string(data))
}

func (i *Ingestor) invalidateQueries(ctx context.Context, date string, logger *slog.Logger) {
	if i.cache == nil {
		return
	}
	if err := i.cache.DeletePattern(ctx, cache.KeyTripQueryPattern(date)); err != nil {
		logger.Warn("failed to invalidate cached queries", "date", date, "error", err)
	}
}

func (i *Ingestor) announce(date, runID string, sets map[domain.Direction]*domain.TripSet) {
	if i.publisher == nil {
		return
	}

	event := hub.ScheduleEvent{
		Date:       date,
		RunID:      runID,
		Special:    true,
		TripCounts: make(map[domain.Direction]int, len(sets)),
		Baseline:   make(map[domain.Direction]bool, len(sets)),
	}
	for dir, set := range sets {
		event.TripCounts[dir] = len(set.Trips)
		event.Baseline[dir] = set.BaselineApplied
	}
	i.publisher.Publish(event)
}

// scheduleDate extracts the date from the special schedule's link text,
// falling back to today when the text carries none.
func scheduleDate(info *patcoweb.ScheduleInfo) string {
	if m := specialDateRe.FindStringSubmatch(info.SpecialScheduleText); m != nil {
		if t, err := time.Parse("January 2, 2006", m[2]); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return info.FetchedAt.Format("2006-01-02")
}

func (i *Ingestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *Ingestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}
