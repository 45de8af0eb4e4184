package persistence

import "context"

// ScheduleFilter narrows schedule queries.
type ScheduleFilter struct {
	// Search matches name or description, ignoring case.
	Search string
}

// DowntimeScheduleRepository stores planned downtime schedules.
type DowntimeScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule DowntimeSchedule) (DowntimeSchedule, error)
	UpdateSchedule(ctx context.Context, schedule DowntimeSchedule) error
	GetSchedule(ctx context.Context, id int64) (DowntimeSchedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]DowntimeSchedule, error)
	DeleteSchedule(ctx context.Context, id int64) error
}
