package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/auth"
	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/service"
)

// localLayouts are accepted for scheduleTime values without an offset,
// as sent by an HTML datetime-local input. They are read in the app zone.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// PostHandler manages the caller's scheduled posts.
type PostHandler struct {
	schedule *service.ScheduleService
	clock    clock.Clock
	zone     clock.Zone
	logger   *slog.Logger
}

func NewPostHandler(schedule *service.ScheduleService, clk clock.Clock, zone clock.Zone, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		schedule: schedule,
		clock:    clk,
		zone:     zone,
		logger:   logger,
	}
}

type createPostRequest struct {
	Platform        string `json:"platform"`
	Content         string `json:"content"`
	ScheduleTime    string `json:"scheduleTime"`
	ReminderMinutes *int   `json:"reminderMinutes,omitempty"`
}

// HandleList returns the caller's posts, earliest first.
//
// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	posts, err := h.schedule.ListForUser(r.Context(), sess.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate schedules a post for the caller.
//
// HTTP: POST /api/posts
// REQUEST BODY:
//
//	{"platform": "twitter", "content": "...",
//	 "scheduleTime": "2025-06-01T10:00:00+05:30", "reminderMinutes": 30}
//
// reminderMinutes defaults to 60. The time must be in the future.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	when, err := h.parseScheduleTime(req.ScheduleTime)
	if err != nil {
		writeError(w, err)
		return
	}
	if !when.After(h.clock.Now()) {
		writeError(w, apperror.ValidationFailed("scheduleTime", "schedule time must be in the future"))
		return
	}

	lead := model.DefaultReminderMinutes
	if req.ReminderMinutes != nil {
		lead = *req.ReminderMinutes
	}

	post, err := h.schedule.Create(r.Context(), sess.Email, req.Platform, req.Content, when, lead)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleDelete removes one of the caller's posts. Admins may delete any.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.schedule.DeleteFor(r.Context(), sess.Email, sess.Role, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlatforms lists the supported platform tags.
//
// HTTP: GET /api/platforms
func (h *PostHandler) HandlePlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.schedule.Platforms())
}

func (h *PostHandler) parseScheduleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperror.ValidationFailed("scheduleTime", "schedule time is required")
	}
	if t, err := h.zone.Parse(s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, h.zone.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.ValidationFailed("scheduleTime", "schedule time must be ISO-8601, e.g. 2025-06-01T10:00:00+05:30")
}

func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "post id must be a positive integer")
	}
	return id, nil
}
