package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/downtime-scheduler/internal/application"
)

type scheduleLister interface {
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.DowntimeSchedule, error)
}

type calendarWriter interface {
	Write(w io.Writer, schedules []application.DowntimeSchedule) error
}

// CalendarHandler publishes every schedule as an iCalendar feed.
type CalendarHandler struct {
	schedules scheduleLister
	feed      calendarWriter
	logger    *slog.Logger
	responder responder
}

func NewCalendarHandler(schedules scheduleLister, feed calendarWriter, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{schedules: schedules, feed: feed, logger: logger, responder: newResponder(logger)}
}

func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.feed == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	schedules, err := h.schedules.ListSchedules(r.Context(), application.ListSchedulesParams{})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.feed.Write(&buf, schedules); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Feed").
			ErrorContext(r.Context(), "failed to render calendar", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="downtime_schedules.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether storage is reachable.
type HealthHandler struct {
	db        pinger
	responder responder
}

func NewHealthHandler(db pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, responder: newResponder(logger)}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}
