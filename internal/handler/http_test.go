package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patline/internal/domain"
	"patline/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedSet(t *testing.T, s *store.ScheduleStore, date string, dir domain.Direction, startHours ...int) {
	t.Helper()
	set := domain.TripSet{Date: date, Direction: dir}
	for n, hour := range startHours {
		trip := domain.Trip{
			ID:        domain.TripID(dir, n),
			Direction: dir,
			Index:     n,
			Times:     make([]domain.TimeValue, domain.StationCount),
		}
		for i := range trip.Times {
			tv, err := domain.ParseTimeValue(fmt.Sprintf("%d:%02dA", hour, i))
			require.NoError(t, err)
			trip.Times[i] = tv
		}
		set.Trips = append(set.Trips, trip)
	}
	s.Put(set)
}

func TestQueryTrips(t *testing.T) {
	schedules := store.New()
	seedSet(t, schedules, "2026-08-29", domain.DirectionWestbound, 6, 7)
	h := NewHTTPHandler(schedules, nil, 0, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/trips?source=1&destination=5&direction=westbound&date=2026-08-29", nil)
	rec := httptest.NewRecorder()
	h.QueryTrips(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp TripsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, 2, resp.TotalCount)
	require.Len(t, resp.Trips, 2)
	assert.Equal(t, "6:01A", resp.Trips[0].DepartureTime)
	assert.Equal(t, "6:05A", resp.Trips[0].ArrivalTime)
	assert.Equal(t, "12th-13th & Locust", resp.Trips[0].SourceStation)
	assert.Equal(t, "Broadway", resp.Trips[0].DestinationStation)
	assert.Equal(t, 1, resp.Query.SourceStationIndex)
	assert.Equal(t, "2026-08-29", resp.Query.ScheduleDate)
}

func TestQueryTripsDefaultsToLatestDate(t *testing.T) {
	schedules := store.New()
	seedSet(t, schedules, "2026-08-29", domain.DirectionWestbound, 6)
	seedSet(t, schedules, "2026-09-05", domain.DirectionWestbound, 8)
	h := NewHTTPHandler(schedules, nil, 0, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/trips?source=0&destination=3&direction=westbound", nil)
	rec := httptest.NewRecorder()
	h.QueryTrips(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TripsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2026-09-05", resp.Query.ScheduleDate)
	require.Len(t, resp.Trips, 1)
	assert.Equal(t, "8:00A", resp.Trips[0].DepartureTime)
}

func TestQueryTripsBadRequests(t *testing.T) {
	schedules := store.New()
	seedSet(t, schedules, "2026-08-29", domain.DirectionWestbound, 6)
	h := NewHTTPHandler(schedules, nil, 0, discardLogger())

	for _, tc := range []struct {
		name string
		url  string
	}{
		{"missing source", "/v1/trips?destination=5&direction=westbound"},
		{"non-numeric source", "/v1/trips?source=abc&destination=5&direction=westbound"},
		{"missing destination", "/v1/trips?source=1&direction=westbound"},
		{"bad direction", "/v1/trips?source=1&destination=5&direction=sideways"},
		{"same station", "/v1/trips?source=5&destination=5&direction=westbound"},
		{"index out of range", "/v1/trips?source=1&destination=99&direction=westbound"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.QueryTrips(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestQueryTripsNoScheduleLoaded(t *testing.T) {
	h := NewHTTPHandler(store.New(), nil, 0, discardLogger())

	rec := httptest.NewRecorder()
	h.QueryTrips(rec, httptest.NewRequest(http.MethodGet, "/v1/trips?source=1&destination=5&direction=westbound", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryTripsUnknownDate(t *testing.T) {
	schedules := store.New()
	seedSet(t, schedules, "2026-08-29", domain.DirectionWestbound, 6)
	h := NewHTTPHandler(schedules, nil, 0, discardLogger())

	rec := httptest.NewRecorder()
	h.QueryTrips(rec, httptest.NewRequest(http.MethodGet, "/v1/trips?source=1&destination=5&direction=westbound&date=2030-01-01", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListStations(t *testing.T) {
	h := NewHTTPHandler(store.New(), nil, 0, discardLogger())

	rec := httptest.NewRecorder()
	h.ListStations(rec, httptest.NewRequest(http.MethodGet, "/v1/stations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StationsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.DirectionWestbound, resp.Direction)
	require.Len(t, resp.Stations, domain.StationCount)
	assert.Equal(t, "15th-16th & Locust", resp.Stations[0])

	rec = httptest.NewRecorder()
	h.ListStations(rec, httptest.NewRequest(http.MethodGet, "/v1/stations?direction=eastbound", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Lindenwold", resp.Stations[0])

	rec = httptest.NewRecorder()
	h.ListStations(rec, httptest.NewRequest(http.MethodGet, "/v1/stations?direction=up", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
