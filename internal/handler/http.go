package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"patline/internal/cache"
	"patline/internal/domain"
	"patline/internal/metrics"
	"patline/internal/query"
	"patline/internal/store"
)

type HTTPHandler struct {
	schedules *store.ScheduleStore
	cache     *cache.RedisCache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

func NewHTTPHandler(schedules *store.ScheduleStore, c *cache.RedisCache, cacheTTL time.Duration, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		schedules: schedules,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

type TripsResponse struct {
	Trips      []query.Result `json:"trips"`
	TotalCount int            `json:"total_count"`
	Query      TripsQuery     `json:"query"`
}

type TripsQuery struct {
	SourceStationIndex      int              `json:"source_station_index"`
	DestinationStationIndex int              `json:"destination_station_index"`
	Direction               domain.Direction `json:"direction"`
	ScheduleDate            string           `json:"schedule_date"`
}

// QueryTrips answers GET /v1/trips. The date defaults to the most recent
// loaded schedule.
func (h *HTTPHandler) QueryTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sourceIdx, err := strconv.Atoi(q.Get("source"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid source parameter: must be a station index")
		return
	}
	destIdx, err := strconv.Atoi(q.Get("destination"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid destination parameter: must be a station index")
		return
	}
	dir, err := domain.ParseDirection(q.Get("direction"))
	if err != nil {
		respondQueryError(w, err)
		return
	}

	date := q.Get("date")
	if date == "" {
		date = h.schedules.LatestDate()
	}
	if date == "" {
		metrics.TripQueries.WithLabelValues("no_schedule").Inc()
		respondError(w, http.StatusNotFound, "no schedule loaded")
		return
	}

	resp, ok := h.cachedTrips(r.Context(), date, dir, sourceIdx, destIdx)
	if ok {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	set, ok := h.schedules.Get(date, dir)
	if !ok {
		metrics.TripQueries.WithLabelValues("no_schedule").Inc()
		respondError(w, http.StatusNotFound, domain.ErrScheduleNotFound.Error())
		return
	}

	results, err := query.Run(set, sourceIdx, destIdx)
	if err != nil {
		metrics.TripQueries.WithLabelValues("invalid").Inc()
		respondQueryError(w, err)
		return
	}

	metrics.TripQueries.WithLabelValues("ok").Inc()
	resp = TripsResponse{
		Trips:      results,
		TotalCount: len(results),
		Query: TripsQuery{
			SourceStationIndex:      sourceIdx,
			DestinationStationIndex: destIdx,
			Direction:               dir,
			ScheduleDate:            date,
		},
	}
	h.storeTrips(r.Context(), date, dir, sourceIdx, destIdx, resp)
	respondJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) cachedTrips(ctx context.Context, date string, dir domain.Direction, sourceIdx, destIdx int) (TripsResponse, bool) {
	var resp TripsResponse
	if h.cache == nil {
		return resp, false
	}
	hit, err := h.cache.GetJSON(ctx, cache.KeyTripQuery(date, dir, sourceIdx, destIdx), &resp)
	if err != nil || !hit {
		ServerStats.IncCacheMisses()
		return resp, false
	}
	ServerStats.IncCacheHits()
	return resp, true
}

func (h *HTTPHandler) storeTrips(ctx context.Context, date string, dir domain.Direction, sourceIdx, destIdx int, resp TripsResponse) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetJSON(ctx, cache.KeyTripQuery(date, dir, sourceIdx, destIdx), resp, h.cacheTTL); err != nil {
		h.logger.Warn("failed to cache trip query", "error", err)
	}
}

type StationsResponse struct {
	Direction domain.Direction `json:"direction"`
	Stations  []string         `json:"stations"`
}

// ListStations answers GET /v1/stations with the registry order for a
// direction (westbound when unspecified).
func (h *HTTPHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	dir := domain.DirectionWestbound
	if s := r.URL.Query().Get("direction"); s != "" {
		parsed, err := domain.ParseDirection(s)
		if err != nil {
			respondQueryError(w, err)
			return
		}
		dir = parsed
	}

	respondJSON(w, http.StatusOK, StationsResponse{
		Direction: dir,
		Stations:  domain.Registry(dir),
	})
}

func respondQueryError(w http.ResponseWriter, err error) {
	var iqe *domain.InvalidQueryError
	if errors.As(err, &iqe) {
		respondError(w, http.StatusBadRequest, iqe.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal server error")
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
