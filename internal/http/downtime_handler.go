package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

type downtimeService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.DowntimeSchedule, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.DowntimeSchedule, error)
	GetSchedule(ctx context.Context, id int64) (application.DowntimeSchedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, id int64) error
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.DowntimeSchedule, error)
	Occurrences(ctx context.Context, params application.OccurrencesParams) ([]recurrence.Occurrence, error)
	ActiveSchedules(ctx context.Context, at time.Time) ([]application.ActiveSchedule, error)
}

// DowntimeHandler serves the downtime schedule resource.
type DowntimeHandler struct {
	service   downtimeService
	formatter downtime.Formatter
	now       func() time.Time
	responder responder
}

// NewDowntimeHandler returns a handler that renders display text with formatter.
func NewDowntimeHandler(service downtimeService, formatter downtime.Formatter, logger *slog.Logger) *DowntimeHandler {
	return &DowntimeHandler{service: service, formatter: formatter, now: time.Now, responder: newResponder(logger)}
}

func (h *DowntimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req downtime.ScheduleData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input:     req,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, http.StatusCreated)
}

func (h *DowntimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || scheduleID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req downtime.ScheduleData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, http.StatusOK)
}

func (h *DowntimeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || scheduleID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, http.StatusOK)
}

func (h *DowntimeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || scheduleID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DowntimeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.ListSchedulesParams{Search: strings.TrimSpace(r.URL.Query().Get("search"))}

	schedules, err := h.service.ListSchedules(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSchedulesResponse{
		Schedules: toScheduleDTOs(schedules, h.formatter),
	})
}

// Occurrences expands one schedule between the from and to query parameters.
// The range defaults to the next seven days.
func (h *DowntimeHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || scheduleID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	from, to, err := h.parseRange(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	occurrences, err := h.service.Occurrences(r.Context(), application.OccurrencesParams{
		ScheduleID: scheduleID,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrencesResponse{
		Occurrences: toOccurrenceDTOs(occurrences, h.location()),
	})
}

// Active lists the schedules in effect at the optional "at" query parameter.
func (h *DowntimeHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	at := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("at")); raw != "" {
		parsed, ok := h.formatter.Parse(raw)
		if !ok {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
			return
		}
		at = parsed
	}

	active, err := h.service.ActiveSchedules(r.Context(), at)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := activeSchedulesResponse{
		At:     formatTime(at, h.location()),
		Active: make([]downtime.ActiveSchedule, 0, len(active)),
	}
	for _, item := range active {
		response.Active = append(response.Active, downtime.ActiveSchedule{
			Schedule:   toScheduleDTO(item.Schedule, h.formatter),
			Occurrence: toOccurrenceDTO(item.Occurrence, h.location()),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *DowntimeHandler) renderSchedule(ctx context.Context, w http.ResponseWriter, schedule application.DowntimeSchedule, status int) {
	h.responder.writeJSON(ctx, w, status, scheduleResponse{Schedule: toScheduleDTO(schedule, h.formatter)})
}

func (h *DowntimeHandler) parseRange(values url.Values) (time.Time, time.Time, error) {
	from := h.now()
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		parsed, ok := h.formatter.Parse(raw)
		if !ok {
			return time.Time{}, time.Time{}, errInvalidRange
		}
		from = parsed
	}
	to := from.Add(7 * 24 * time.Hour)
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		parsed, ok := h.formatter.Parse(raw)
		if !ok {
			return time.Time{}, time.Time{}, errInvalidRange
		}
		to = parsed
	}
	return from, to, nil
}

func (h *DowntimeHandler) location() *time.Location {
	if h.formatter.Location == nil {
		return time.Local
	}
	return h.formatter.Location
}
