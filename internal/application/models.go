package application

import (
	"time"

	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

// Principal represents the caller invoking a service method.
type Principal struct {
	Name    string
	IsAdmin bool
}

// Recurrence is the validated repeat configuration of a schedule.
type Recurrence struct {
	RepeatType recurrence.Frequency
	// RepeatOn holds lowercase English weekday names.
	RepeatOn  []string
	StartTime time.Time
	EndTime   *time.Time
	Duration  time.Duration
}

// DowntimeSchedule represents a persisted planned downtime schedule.
type DowntimeSchedule struct {
	ID          int64
	Name        string
	Description string
	Timezone    string
	StartTime   *time.Time
	EndTime     *time.Time
	Recurrence  *Recurrence
	AlertIDs    []string
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
	UpdatedBy   string
}

// Location returns the schedule time zone, UTC when unset or unknown.
func (s DowntimeSchedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ActiveSchedule pairs a schedule with its occurrence covering a given instant.
type ActiveSchedule struct {
	Schedule   DowntimeSchedule
	Occurrence recurrence.Occurrence
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     downtime.ScheduleData
}

// UpdateScheduleParams wraps the data required to update an existing schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID int64
	Input      downtime.ScheduleData
}

// ListSchedulesParams narrows schedule listings.
type ListSchedulesParams struct {
	Search string
}

// Rule returns the recurrence rule of a recurring schedule.
func (s DowntimeSchedule) Rule() (recurrence.Rule, bool) {
	if s.Recurrence == nil {
		return recurrence.Rule{}, false
	}
	rule := recurrence.Rule{
		ScheduleID: s.ID,
		Frequency:  s.Recurrence.RepeatType,
		StartsOn:   s.Recurrence.StartTime,
		EndsOn:     s.Recurrence.EndTime,
		Duration:   s.Recurrence.Duration,
		Location:   s.Location(),
	}
	for _, label := range s.Recurrence.RepeatOn {
		if day, ok := recurrence.ParseWeekday(label); ok {
			rule.Weekdays = append(rule.Weekdays, day)
		}
	}
	return rule, true
}

// Window returns the single occurrence of a one-off schedule.
func (s DowntimeSchedule) Window() (recurrence.Occurrence, bool) {
	if s.Recurrence != nil || s.StartTime == nil || s.EndTime == nil {
		return recurrence.Occurrence{}, false
	}
	return recurrence.Occurrence{ScheduleID: s.ID, Start: *s.StartTime, End: *s.EndTime}, true
}

// OccurrencesParams bounds an occurrence expansion for one schedule.
type OccurrencesParams struct {
	ScheduleID int64
	From       time.Time
	To         time.Time
}
