package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/downtime-scheduler/internal/persistence"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

// maxOccurrenceSpan bounds the range accepted by Occurrences.
const maxOccurrenceSpan = 366 * 24 * time.Hour

// DowntimeRepository captures the persistence operations needed by the service.
type DowntimeRepository interface {
	CreateSchedule(ctx context.Context, schedule DowntimeSchedule) (DowntimeSchedule, error)
	UpdateSchedule(ctx context.Context, schedule DowntimeSchedule) error
	GetSchedule(ctx context.Context, id int64) (DowntimeSchedule, error)
	ListSchedules(ctx context.Context, search string) ([]DowntimeSchedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

// DowntimeService orchestrates validation, authorization, and persistence for downtime schedules.
type DowntimeService struct {
	schedules DowntimeRepository
	engine    *recurrence.Engine
	now       func() time.Time
	logger    *slog.Logger
}

// NewDowntimeService constructs a downtime service with the provided dependencies.
func NewDowntimeService(schedules DowntimeRepository, engine *recurrence.Engine, now func() time.Time) *DowntimeService {
	return NewDowntimeServiceWithLogger(schedules, engine, now, nil)
}

// NewDowntimeServiceWithLogger constructs a downtime service with a specified logger.
func NewDowntimeServiceWithLogger(schedules DowntimeRepository, engine *recurrence.Engine, now func() time.Time, logger *slog.Logger) *DowntimeService {
	if engine == nil {
		engine = recurrence.NewEngine(time.UTC)
	}
	if now == nil {
		now = time.Now
	}
	return &DowntimeService{schedules: schedules, engine: engine, now: now, logger: defaultLogger(logger)}
}

func (s *DowntimeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DowntimeService", operation, attrs...)
}

// CreateSchedule validates input and persists a new downtime schedule.
func (s *DowntimeService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (schedule DowntimeSchedule, err error) {
	if s == nil {
		err = fmt.Errorf("DowntimeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSchedule", "principal", params.Principal.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create downtime schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("schedule_id", schedule.ID).InfoContext(ctx, "downtime schedule created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	fields, vErr := validateScheduleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().UTC()
	schedule = fields.schedule()
	schedule.CreatedAt = now
	schedule.CreatedBy = params.Principal.Name
	schedule.UpdatedAt = now
	schedule.UpdatedBy = params.Principal.Name

	if s.schedules == nil {
		return
	}

	var persisted DowntimeSchedule
	persisted, err = s.schedules.CreateSchedule(ctx, schedule)
	if err != nil {
		err = mapDowntimeRepoError(err)
		return
	}

	schedule = persisted
	return
}

// UpdateSchedule validates input and replaces an existing schedule, keeping its creation metadata.
func (s *DowntimeService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (schedule DowntimeSchedule, err error) {
	if s == nil {
		err = fmt.Errorf("DowntimeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSchedule",
		"principal", params.Principal.Name,
		"schedule_id", params.ScheduleID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update downtime schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "downtime schedule updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if params.ScheduleID <= 0 {
		err = ErrNotFound
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("downtime repository not configured")
		return
	}

	fields, vErr := validateScheduleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing DowntimeSchedule
	existing, err = s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		err = mapDowntimeRepoError(err)
		return
	}

	schedule = fields.schedule()
	schedule.ID = existing.ID
	schedule.CreatedAt = existing.CreatedAt
	schedule.CreatedBy = existing.CreatedBy
	schedule.UpdatedAt = s.now().UTC()
	schedule.UpdatedBy = params.Principal.Name

	if err = s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		err = mapDowntimeRepoError(err)
		schedule = DowntimeSchedule{}
		return
	}
	return
}

// GetSchedule returns a single schedule.
func (s *DowntimeService) GetSchedule(ctx context.Context, id int64) (DowntimeSchedule, error) {
	if s == nil {
		return DowntimeSchedule{}, fmt.Errorf("DowntimeService is nil")
	}
	if id <= 0 || s.schedules == nil {
		return DowntimeSchedule{}, ErrNotFound
	}

	schedule, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		err = mapDowntimeRepoError(err)
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "GetSchedule", "schedule_id", id).
				ErrorContext(ctx, "failed to load downtime schedule", "error", err, "error_kind", ErrorKind(err))
		}
		return DowntimeSchedule{}, err
	}
	return schedule, nil
}

// ListSchedules returns the schedules whose name or description contains the search text.
func (s *DowntimeService) ListSchedules(ctx context.Context, params ListSchedulesParams) ([]DowntimeSchedule, error) {
	if s == nil {
		return nil, fmt.Errorf("DowntimeService is nil")
	}
	if s.schedules == nil {
		return []DowntimeSchedule{}, nil
	}

	schedules, err := s.schedules.ListSchedules(ctx, params.Search)
	if err != nil {
		err = mapDowntimeRepoError(err)
		s.loggerWith(ctx, "ListSchedules").
			ErrorContext(ctx, "failed to list downtime schedules", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	if schedules == nil {
		schedules = []DowntimeSchedule{}
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule.
func (s *DowntimeService) DeleteSchedule(ctx context.Context, principal Principal, id int64) (err error) {
	if s == nil {
		return fmt.Errorf("DowntimeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteSchedule",
		"principal", principal.Name,
		"schedule_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete downtime schedule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "downtime schedule deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if id <= 0 {
		return ErrNotFound
	}
	if s.schedules == nil {
		return fmt.Errorf("downtime repository not configured")
	}

	if err = s.schedules.DeleteSchedule(ctx, id); err != nil {
		return mapDowntimeRepoError(err)
	}
	return nil
}

// Occurrences expands a schedule into the windows overlapping [From, To).
func (s *DowntimeService) Occurrences(ctx context.Context, params OccurrencesParams) ([]recurrence.Occurrence, error) {
	vErr := &ValidationError{}
	if params.From.IsZero() {
		vErr.add("from", "from is required")
	}
	if params.To.IsZero() {
		vErr.add("to", "to is required")
	}
	if !params.From.IsZero() && !params.To.IsZero() {
		switch {
		case !params.From.Before(params.To):
			vErr.add("to", "to must be after from")
		case params.To.Sub(params.From) > maxOccurrenceSpan:
			vErr.add("to", "range must not exceed 366 days")
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	schedule, err := s.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.expand(schedule, params.From, params.To)
	if err != nil {
		s.loggerWith(ctx, "Occurrences", "schedule_id", params.ScheduleID).
			ErrorContext(ctx, "failed to expand downtime schedule", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return occurrences, nil
}

// ActiveSchedules returns the schedules with a window covering at, ordered by schedule id.
func (s *DowntimeService) ActiveSchedules(ctx context.Context, at time.Time) ([]ActiveSchedule, error) {
	if at.IsZero() {
		at = s.now()
	}

	schedules, err := s.ListSchedules(ctx, ListSchedulesParams{})
	if err != nil {
		return nil, err
	}

	active := make([]ActiveSchedule, 0)
	for _, schedule := range schedules {
		occ, ok, err := s.activeOccurrence(schedule, at)
		if err != nil {
			s.loggerWith(ctx, "ActiveSchedules", "schedule_id", schedule.ID).
				WarnContext(ctx, "skipping schedule with invalid recurrence", "error", err)
			continue
		}
		if ok {
			active = append(active, ActiveSchedule{Schedule: schedule, Occurrence: occ})
		}
	}
	return active, nil
}

func (s *DowntimeService) expand(schedule DowntimeSchedule, from, to time.Time) ([]recurrence.Occurrence, error) {
	if window, ok := schedule.Window(); ok {
		if window.End.After(from) && window.Start.Before(to) {
			return []recurrence.Occurrence{window}, nil
		}
		return []recurrence.Occurrence{}, nil
	}

	rule, ok := schedule.Rule()
	if !ok {
		return []recurrence.Occurrence{}, nil
	}
	occurrences, err := s.engine.GenerateOccurrences(rule, recurrence.GenerateOptions{RangeStart: &from, RangeEnd: &to})
	if err != nil {
		return nil, err
	}
	result := make([]recurrence.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.Start.Before(to) {
			result = append(result, occ)
		}
	}
	return result, nil
}

func (s *DowntimeService) activeOccurrence(schedule DowntimeSchedule, at time.Time) (recurrence.Occurrence, bool, error) {
	if window, ok := schedule.Window(); ok {
		return window, window.Contains(at), nil
	}
	rule, ok := schedule.Rule()
	if !ok {
		return recurrence.Occurrence{}, false, nil
	}
	return s.engine.ActiveOccurrence(rule, at)
}

func (f scheduleFields) schedule() DowntimeSchedule {
	return DowntimeSchedule{
		Name:        f.Name,
		Description: f.Description,
		Timezone:    f.Timezone,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Recurrence:  f.Recurrence,
		AlertIDs:    f.AlertIDs,
	}
}

func mapDowntimeRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
