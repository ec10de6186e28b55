package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"patline/internal/ingestor"
	"patline/internal/store"
)

type HealthHandler struct {
	ingestor  *ingestor.Ingestor
	schedules *store.ScheduleStore
}

func NewHealthHandler(ing *ingestor.Ingestor, s *store.ScheduleStore) *HealthHandler {
	return &HealthHandler{
		ingestor:  ing,
		schedules: s,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	Dates      []string  `json:"dates"`
	TripCount  int       `json:"tripCount"`
	ServerTime time.Time `json:"serverTime"`
}

// Readyz reports ready once the first poll completed or a schedule was
// warm-loaded.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.ingestor.IsReady() || h.schedules.HasAny()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:      ready,
		Dates:      h.schedules.Dates(),
		TripCount:  h.schedules.TripCount(),
		ServerTime: time.Now(),
	})
}
