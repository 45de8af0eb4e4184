// Package calendar renders downtime schedules as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

const defaultProductID = "-//downtime-scheduler//planned downtime//EN"

// Feed builds VCALENDAR documents from downtime schedules.
type Feed struct {
	ProductID string
	Name      string

	engine *recurrence.Engine
	now    func() time.Time
}

// NewFeed returns a feed named name that renders recurrence rules with engine.
func NewFeed(name string, engine *recurrence.Engine, now func() time.Time) *Feed {
	if engine == nil {
		engine = recurrence.NewEngine(time.UTC)
	}
	if now == nil {
		now = time.Now
	}
	return &Feed{ProductID: defaultProductID, Name: name, engine: engine, now: now}
}

// EventUID returns the stable VEVENT UID of a schedule.
func EventUID(id int64) string {
	return fmt.Sprintf("downtime-schedule-%d", id)
}

// Build creates a calendar with one VEVENT per schedule. Recurring schedules
// carry an RRULE; schedules without a usable window are skipped.
func (f *Feed) Build(schedules []application.DowntimeSchedule) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(f.ProductID)
	if f.Name != "" {
		cal.SetName(f.Name)
	}

	stamp := f.now().UTC()
	for _, schedule := range schedules {
		start, end, rrule, ok, err := f.window(schedule)
		if err != nil {
			return nil, fmt.Errorf("schedule %d: %w", schedule.ID, err)
		}
		if !ok {
			continue
		}

		event := cal.AddEvent(EventUID(schedule.ID))
		event.SetDtStampTime(stamp)
		if !schedule.CreatedAt.IsZero() {
			event.SetCreatedTime(schedule.CreatedAt)
		}
		if !schedule.UpdatedAt.IsZero() {
			event.SetModifiedAt(schedule.UpdatedAt)
		}
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(schedule.Name)
		if description := eventDescription(schedule); description != "" {
			event.SetDescription(description)
		}
		if rrule != "" {
			event.AddRrule(rrule)
		}
	}
	return cal, nil
}

// Write serializes the calendar for schedules to w.
func (f *Feed) Write(w io.Writer, schedules []application.DowntimeSchedule) error {
	cal, err := f.Build(schedules)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}

func (f *Feed) window(schedule application.DowntimeSchedule) (start, end time.Time, rrule string, ok bool, err error) {
	if occ, isOneOff := schedule.Window(); isOneOff {
		return occ.Start, occ.End, "", true, nil
	}
	rule, recurring := schedule.Rule()
	if !recurring {
		return
	}
	rrule, err = f.engine.RRuleString(rule)
	if err != nil {
		return
	}
	start = rule.StartsOn
	end = start.Add(rule.Duration)
	ok = true
	return
}

func eventDescription(schedule application.DowntimeSchedule) string {
	var parts []string
	if schedule.Description != "" {
		parts = append(parts, schedule.Description)
	}
	if len(schedule.AlertIDs) > 0 {
		parts = append(parts, "Silenced alerts: "+strings.Join(schedule.AlertIDs, ", "))
	}
	return strings.Join(parts, "\n")
}
