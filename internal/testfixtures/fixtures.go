package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/persistence"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

var scheduleCounter uint64

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// RecurrenceFixture describes a repeating window.
type RecurrenceFixture struct {
	RepeatType string
	RepeatOn   []string
	StartTime  time.Time
	EndTime    *time.Time
	Duration   time.Duration
}

// ScheduleFixture represents a deterministic downtime schedule that can be
// materialised for the wire, application or persistence layers.
type ScheduleFixture struct {
	ID          int64
	Name        string
	Description string
	Timezone    string
	StartTime   time.Time
	EndTime     time.Time
	Recurrence  *RecurrenceFixture
	AlertIDs    []string
	CreatedAt   time.Time
	CreatedBy   string
}

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a one hour one-off window starting one day after
// ReferenceTime, with optional overrides.
func NewScheduleFixture(opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	start := referenceTime.Add(24 * time.Hour)
	fixture := ScheduleFixture{
		ID:          int64(idx),
		Name:        fmt.Sprintf("Maintenance %03d", idx),
		Description: fmt.Sprintf("planned work %03d", idx),
		Timezone:    "UTC",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		AlertIDs:    []string{fmt.Sprintf("alert-%03d", idx)},
		CreatedAt:   referenceTime,
		CreatedBy:   "admin",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated identifier.
func WithScheduleID(id int64) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.ID = id
	}
}

// WithScheduleName overrides the generated name.
func WithScheduleName(name string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Name = name
	}
}

// WithScheduleWindow sets the one-off window.
func WithScheduleWindow(start, end time.Time) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithScheduleTimezone overrides the IANA time zone.
func WithScheduleTimezone(tz string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Timezone = tz
	}
}

// WithDailyRecurrence makes the schedule repeat every day from start.
func WithDailyRecurrence(start time.Time, duration time.Duration) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Recurrence = &RecurrenceFixture{RepeatType: downtime.RepeatDaily, StartTime: start, Duration: duration}
	}
}

// WithWeeklyRecurrence makes the schedule repeat on the given weekdays.
func WithWeeklyRecurrence(start time.Time, duration time.Duration, days ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Recurrence = &RecurrenceFixture{
			RepeatType: downtime.RepeatWeekly,
			RepeatOn:   append([]string(nil), days...),
			StartTime:  start,
			Duration:   duration,
		}
	}
}

// WithRecurrenceEnd bounds the recurrence. It must follow a recurrence option.
func WithRecurrenceEnd(end time.Time) ScheduleOption {
	return func(f *ScheduleFixture) {
		if f.Recurrence != nil {
			f.Recurrence.EndTime = &end
		}
	}
}

// WithAlertIDs overrides the silenced alert identifiers.
func WithAlertIDs(ids ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.AlertIDs = append([]string(nil), ids...)
	}
}

// Data returns the fixture as the wire payload accepted by the API.
func (f ScheduleFixture) Data() downtime.ScheduleData {
	data := downtime.ScheduleData{
		Name:        f.Name,
		Description: f.Description,
		Schedule:    downtime.Window{Timezone: f.Timezone},
		AlertIDs:    append([]string{}, f.AlertIDs...),
	}
	if f.Recurrence == nil {
		data.Schedule.StartTime = f.StartTime.Format(time.RFC3339)
		data.Schedule.EndTime = f.EndTime.Format(time.RFC3339)
		return data
	}
	r := &downtime.Recurrence{
		StartTime:  f.Recurrence.StartTime.Format(time.RFC3339),
		Duration:   application.FormatDuration(f.Recurrence.Duration),
		RepeatType: f.Recurrence.RepeatType,
	}
	if f.Recurrence.EndTime != nil {
		r.EndTime = f.Recurrence.EndTime.Format(time.RFC3339)
	}
	if f.Recurrence.RepeatOn != nil {
		r.RepeatOn = append([]string{}, f.Recurrence.RepeatOn...)
	}
	data.Schedule.Recurrence = r
	return data
}

// Application returns the fixture as an application.DowntimeSchedule.
func (f ScheduleFixture) Application() application.DowntimeSchedule {
	schedule := application.DowntimeSchedule{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Timezone:    f.Timezone,
		AlertIDs:    append([]string{}, f.AlertIDs...),
		CreatedAt:   f.CreatedAt,
		CreatedBy:   f.CreatedBy,
	}
	if f.Recurrence == nil {
		start, end := f.StartTime, f.EndTime
		schedule.StartTime = &start
		schedule.EndTime = &end
		return schedule
	}
	schedule.Recurrence = &application.Recurrence{
		RepeatType: recurrence.Frequency(f.Recurrence.RepeatType),
		RepeatOn:   cloneStrings(f.Recurrence.RepeatOn),
		StartTime:  f.Recurrence.StartTime,
		EndTime:    cloneTime(f.Recurrence.EndTime),
		Duration:   f.Recurrence.Duration,
	}
	return schedule
}

// Persistence returns the fixture as a persistence.DowntimeSchedule.
func (f ScheduleFixture) Persistence() persistence.DowntimeSchedule {
	schedule := persistence.DowntimeSchedule{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Timezone:    f.Timezone,
		AlertIDs:    append([]string{}, f.AlertIDs...),
		CreatedAt:   f.CreatedAt,
		CreatedBy:   f.CreatedBy,
	}
	if f.Recurrence == nil {
		start, end := f.StartTime, f.EndTime
		schedule.StartTime = &start
		schedule.EndTime = &end
		return schedule
	}
	schedule.Recurrence = &persistence.Recurrence{
		RepeatType: f.Recurrence.RepeatType,
		RepeatOn:   cloneStrings(f.Recurrence.RepeatOn),
		StartTime:  f.Recurrence.StartTime,
		EndTime:    cloneTime(f.Recurrence.EndTime),
		Duration:   application.FormatDuration(f.Recurrence.Duration),
	}
	return schedule
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append(make([]string, 0, len(values)), values...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
