package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"patline/internal/store"
)

// Stats tracks server-wide counters.
type Stats struct {
	startTime        time.Time
	requestCount     atomic.Int64
	wsConnections    atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	rateLimitBlocked atomic.Int64
}

var ServerStats = &Stats{
	startTime: time.Now(),
}

func (s *Stats) IncRequests()         { s.requestCount.Add(1) }
func (s *Stats) IncWSConnections()    { s.wsConnections.Add(1) }
func (s *Stats) DecWSConnections()    { s.wsConnections.Add(-1) }
func (s *Stats) IncCacheHits()        { s.cacheHits.Add(1) }
func (s *Stats) IncCacheMisses()      { s.cacheMisses.Add(1) }
func (s *Stats) IncRateLimitBlocked() { s.rateLimitBlocked.Add(1) }

type StatsHandler struct {
	schedules *store.ScheduleStore
}

func NewStatsHandler(schedules *store.ScheduleStore) *StatsHandler {
	return &StatsHandler{schedules: schedules}
}

type StatsResponse struct {
	UptimeSeconds    int64    `json:"uptimeSeconds"`
	Requests         int64    `json:"requests"`
	WSConnections    int64    `json:"wsConnections"`
	CacheHits        int64    `json:"cacheHits"`
	CacheMisses      int64    `json:"cacheMisses"`
	RateLimitBlocked int64    `json:"rateLimitBlocked"`
	ScheduleDates    []string `json:"scheduleDates"`
	TripCount        int      `json:"tripCount"`
	Goroutines       int      `json:"goroutines"`
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		UptimeSeconds:    int64(time.Since(ServerStats.startTime).Seconds()),
		Requests:         ServerStats.requestCount.Load(),
		WSConnections:    ServerStats.wsConnections.Load(),
		CacheHits:        ServerStats.cacheHits.Load(),
		CacheMisses:      ServerStats.cacheMisses.Load(),
		RateLimitBlocked: ServerStats.rateLimitBlocked.Load(),
		ScheduleDates:    h.schedules.Dates(),
		TripCount:        h.schedules.TripCount(),
		Goroutines:       runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
