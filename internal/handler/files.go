package handler

import (
	"log/slog"
	"net/http"
	"time"

	"patline/internal/domain"
	"patline/internal/objstore"
)

// FilesHandler exposes the persisted schedule artifacts: existence checks,
// time-limited signed download URLs and routine-schedule freshness.
type FilesHandler struct {
	objects       objstore.ObjectStore
	regularPrefix string
	urlTTL        time.Duration
	logger        *slog.Logger
}

func NewFilesHandler(objects objstore.ObjectStore, regularPrefix string, urlTTL time.Duration, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		objects:       objects,
		regularPrefix: regularPrefix,
		urlTTL:        urlTTL,
		logger:        logger,
	}
}

type SpecialSchedules struct {
	ScheduleDate     string `json:"schedule_date"`
	WestboundURL     string `json:"westbound_url"`
	EastboundURL     string `json:"eastbound_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type RegularSchedules struct {
	Updated          bool              `json:"updated"`
	LastModified     string            `json:"last_modified,omitempty"`
	URLs             map[string]string `json:"urls,omitempty"`
	ExpiresInSeconds int               `json:"expires_in_seconds,omitempty"`
	Error            string            `json:"error,omitempty"`
}

type FilesResponse struct {
	SpecialSchedules *SpecialSchedules `json:"special_schedules,omitempty"`
	RegularSchedules *RegularSchedules `json:"regular_schedules,omitempty"`
	Message          string            `json:"message"`
}

// GetScheduleFiles answers GET /v1/schedules/{date}/files. With a
// last_updated query parameter it additionally reports whether the routine
// schedules changed since then.
func (h *FilesHandler) GetScheduleFiles(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format, use YYYY-MM-DD")
		return
	}

	resp := FilesResponse{}

	special, err := h.specialSchedules(r, date)
	if err != nil {
		h.logger.Error("failed to check special schedules", "date", date, "error", err)
		respondError(w, http.StatusInternalServerError, "storage error")
		return
	}
	resp.SpecialSchedules = special

	if lastUpdated := r.URL.Query().Get("last_updated"); lastUpdated != "" {
		resp.RegularSchedules = h.regularSchedules(r, day, lastUpdated)
	}

	resp.Message = buildMessage(special != nil, resp.RegularSchedules)
	respondJSON(w, http.StatusOK, resp)
}

// specialSchedules returns nil when either direction's artifact is missing:
// a half-published date is treated as unavailable.
func (h *FilesHandler) specialSchedules(r *http.Request, date string) (*SpecialSchedules, error) {
	ctx := r.Context()
	urls := make(map[domain.Direction]string, 2)

	for _, dir := range domain.Directions {
		key := objstore.SpecialScheduleKey(date, dir)
		exists, err := h.objects.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}
		url, err := h.objects.SignedURL(key, h.urlTTL)
		if err != nil {
			return nil, err
		}
		urls[dir] = url
	}

	return &SpecialSchedules{
		ScheduleDate:     date,
		WestboundURL:     urls[domain.DirectionWestbound],
		EastboundURL:     urls[domain.DirectionEastbound],
		ExpiresInSeconds: int(h.urlTTL.Seconds()),
	}, nil
}

func (h *FilesHandler) regularSchedules(r *http.Request, day time.Time, lastUpdated string) *RegularSchedules {
	since, err := time.Parse(time.RFC3339, lastUpdated)
	if err != nil {
		return &RegularSchedules{Error: "invalid last_updated format, use RFC3339"}
	}

	ctx := r.Context()
	category := objstore.CategoryFor(day)

	var newest time.Time
	for _, dir := range domain.Directions {
		key := objstore.RegularScheduleKey(h.regularPrefix, category, dir)
		modified, err := h.objects.LastModified(ctx, key)
		if err != nil {
			return &RegularSchedules{Error: "regular schedules unavailable"}
		}
		if modified.After(newest) {
			newest = modified
		}
	}

	if !newest.After(since) {
		return &RegularSchedules{Updated: false}
	}

	urls := make(map[string]string, 2)
	for _, dir := range domain.Directions {
		key := objstore.RegularScheduleKey(h.regularPrefix, category, dir)
		url, err := h.objects.SignedURL(key, h.urlTTL)
		if err != nil {
			return &RegularSchedules{Error: "regular schedules unavailable"}
		}
		urls[string(dir)] = url
	}

	return &RegularSchedules{
		Updated:          true,
		LastModified:     newest.Format(time.RFC3339),
		URLs:             urls,
		ExpiresInSeconds: int(h.urlTTL.Seconds()),
	}
}

func buildMessage(hasSpecial bool, regular *RegularSchedules) string {
	prefix := "No special schedule found for the given date"
	if hasSpecial {
		prefix = "Special schedule found"
	}
	if regular == nil || regular.Error != "" {
		return prefix
	}
	if regular.Updated {
		return prefix + ". Regular schedules updated"
	}
	return prefix + ". Regular schedules are up to date"
}
