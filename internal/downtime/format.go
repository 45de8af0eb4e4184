package downtime

import (
	"fmt"
	"strings"
	"time"
)

const (
	// NotAvailable is rendered when a timestamp needed for display is missing.
	NotAvailable = "N/A"
	// InvalidDate is rendered for timestamps that cannot be parsed.
	InvalidDate = "Invalid Date"

	dateTimeLayout = "Jan 02, 2006, 3:04 PM"
)

// Layouts accepted for timestamp strings, most specific first. Layouts without
// an offset are interpreted in the formatter location, including the slash and
// month-name date-only forms. Only the ISO date-only form is UTC.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
		"2006/01/02",
		"Jan 2, 2006 15:04:05",
		"Jan 2, 2006 15:04",
		"Jan 2, 2006",
		"January 2, 2006",
	}
)

// Formatter renders schedule timestamps in a display location.
// The zero value renders in time.Local.
type Formatter struct {
	Location *time.Location
}

// NewFormatter returns a Formatter bound to loc.
func NewFormatter(loc *time.Location) Formatter {
	return Formatter{Location: loc}
}

var defaultFormatter Formatter

// Duration renders the length of a window using the default formatter.
func Duration(startTime, endTime string) string {
	return defaultFormatter.Duration(startTime, endTime)
}

// FormatDateTime renders a timestamp using the default formatter.
func FormatDateTime(value string) string {
	return defaultFormatter.FormatDateTime(value)
}

// RecurrenceInfo describes a recurrence using the default formatter.
func RecurrenceInfo(recurrence *Recurrence) string {
	return defaultFormatter.RecurrenceInfo(recurrence)
}

func (f Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// Parse reads a timestamp string. Date-only values are UTC midnight and values
// without an offset are taken in the formatter location.
func (f Formatter) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, value, f.location()); err == nil {
			return ts, true
		}
	}
	if ts, err := time.Parse(time.DateOnly, value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// Duration renders the absolute distance between two timestamps.
//
// Under an hour it renders whole minutes ("30 min"); otherwise whole hours
// with the remainder dropped ("1 hours" for 90 minutes). Missing timestamps
// render N/A and unparseable ones render "NaN hours".
func (f Formatter) Duration(startTime, endTime string) string {
	if startTime == "" || endTime == "" {
		return NotAvailable
	}

	start, okStart := f.Parse(startTime)
	end, okEnd := f.Parse(endTime)
	if !okStart || !okEnd {
		return "NaN hours"
	}

	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}

	minutes := int64(elapsed / time.Minute)
	hours := int64(elapsed / time.Hour)

	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hours", hours)
}

// FormatDateTime renders a timestamp like "Jan 05, 2024, 3:05 PM".
func (f Formatter) FormatDateTime(value string) string {
	if value == "" {
		return NotAvailable
	}
	ts, ok := f.Parse(value)
	if !ok {
		return InvalidDate
	}
	return ts.In(f.location()).Format(dateTimeLayout)
}

// RecurrenceInfo renders a one line description of a recurrence, or "No"
// when the schedule does not repeat. Omitted clauses leave their separating
// spaces in place.
func (f Formatter) RecurrenceInfo(recurrence *Recurrence) string {
	if recurrence == nil {
		return "No"
	}

	var start, end, weekly, duration string
	if recurrence.StartTime != "" {
		start = f.FormatDateTime(recurrence.StartTime)
	}
	if recurrence.EndTime != "" {
		end = "to " + f.FormatDateTime(recurrence.EndTime)
	}
	if recurrence.RepeatOn != nil {
		weekly = "on " + strings.Join(recurrence.RepeatOn, ", ")
	}
	if recurrence.Duration != "" {
		duration = "- Duration: " + recurrence.Duration
	}

	return fmt.Sprintf("Repeats - %s %s from %s %s %s", recurrence.RepeatType, weekly, start, end, duration)
}

// Decorate fills the pre-rendered display fields of a schedule.
func (f Formatter) Decorate(schedule Schedule) Schedule {
	schedule.DurationText = f.Duration(schedule.Schedule.StartTime, schedule.Schedule.EndTime)
	schedule.RecurrenceText = f.RecurrenceInfo(schedule.Schedule.Recurrence)
	return schedule
}
