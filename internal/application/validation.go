package application

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 2000
)

// scheduleFields is the validated, typed form of downtime.ScheduleData.
type scheduleFields struct {
	Name        string
	Description string
	Timezone    string
	StartTime   *time.Time
	EndTime     *time.Time
	Recurrence  *Recurrence
	AlertIDs    []string
}

func validateScheduleInput(input downtime.ScheduleData) (scheduleFields, *ValidationError) {
	vErr := &ValidationError{}
	fields := scheduleFields{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Timezone:    strings.TrimSpace(input.Schedule.Timezone),
		AlertIDs:    normalizeAlertIDs(input.AlertIDs),
	}

	switch {
	case fields.Name == "":
		vErr.add("name", "name is required")
	case len([]rune(fields.Name)) > maxNameLength:
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if len([]rune(fields.Description)) > maxDescriptionLength {
		vErr.add("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	loc := time.UTC
	if fields.Timezone != "" {
		parsed, err := time.LoadLocation(fields.Timezone)
		if err != nil {
			vErr.add("schedule.timezone", "timezone must be a valid IANA time zone")
		} else {
			loc = parsed
		}
	}
	formatter := downtime.NewFormatter(loc)

	fields.StartTime = parseOptionalTime(formatter, input.Schedule.StartTime, "schedule.startTime", vErr)
	fields.EndTime = parseOptionalTime(formatter, input.Schedule.EndTime, "schedule.endTime", vErr)

	if input.Schedule.Recurrence == nil {
		switch {
		case fields.StartTime == nil && strings.TrimSpace(input.Schedule.StartTime) == "":
			vErr.add("schedule.startTime", "start time is required")
		case fields.EndTime == nil && strings.TrimSpace(input.Schedule.EndTime) == "":
			vErr.add("schedule.endTime", "end time is required for a one-off window")
		}
	}
	if fields.StartTime != nil && fields.EndTime != nil && !fields.StartTime.Before(*fields.EndTime) {
		vErr.add("schedule.endTime", "end time must be after start time")
	}

	if input.Schedule.Recurrence != nil {
		fields.Recurrence = validateRecurrence(formatter, *input.Schedule.Recurrence, fields.StartTime, vErr)
	}

	return fields, vErr
}

func validateRecurrence(formatter downtime.Formatter, input downtime.Recurrence, fallbackStart *time.Time, vErr *ValidationError) *Recurrence {
	rec := &Recurrence{}

	freq, ok := recurrence.ParseFrequency(input.RepeatType)
	if !ok {
		vErr.add("schedule.recurrence.repeatType", "repeat type must be one of daily, weekly, monthly")
	}
	rec.RepeatType = freq

	start := parseOptionalTime(formatter, input.StartTime, "schedule.recurrence.startTime", vErr)
	if start == nil && strings.TrimSpace(input.StartTime) == "" {
		start = fallbackStart
	}
	if start == nil {
		vErr.add("schedule.recurrence.startTime", "recurrence start time is required")
	} else {
		rec.StartTime = *start
	}

	rec.EndTime = parseOptionalTime(formatter, input.EndTime, "schedule.recurrence.endTime", vErr)
	if start != nil && rec.EndTime != nil && !start.Before(*rec.EndTime) {
		vErr.add("schedule.recurrence.endTime", "recurrence end time must be after its start time")
	}

	duration, err := ParseDuration(input.Duration)
	switch {
	case strings.TrimSpace(input.Duration) == "":
		vErr.add("schedule.recurrence.duration", "duration is required")
	case err != nil || duration <= 0:
		vErr.add("schedule.recurrence.duration", "duration must be a positive duration such as 30m or 2h")
	default:
		rec.Duration = duration
	}

	if input.RepeatOn != nil {
		days, invalid := normalizeWeekdays(input.RepeatOn)
		if invalid != "" {
			vErr.add("schedule.recurrence.repeatOn", fmt.Sprintf("unknown weekday %q", invalid))
		}
		rec.RepeatOn = days
	}
	if freq == recurrence.FrequencyWeekly && len(rec.RepeatOn) == 0 {
		vErr.add("schedule.recurrence.repeatOn", "weekly recurrence requires at least one weekday")
	}

	return rec
}

func parseOptionalTime(formatter downtime.Formatter, value, field string, vErr *ValidationError) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, ok := formatter.Parse(value)
	if !ok {
		vErr.add(field, "must be a valid timestamp")
		return nil
	}
	return &parsed
}

// normalizeWeekdays returns lowercase weekday names in week order without
// duplicates, plus the first label that could not be parsed.
func normalizeWeekdays(labels []string) ([]string, string) {
	seen := make(map[time.Weekday]struct{}, len(labels))
	var invalid string
	for _, label := range labels {
		day, ok := recurrence.ParseWeekday(label)
		if !ok {
			if invalid == "" {
				invalid = label
			}
			continue
		}
		seen[day] = struct{}{}
	}
	days := make([]time.Weekday, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToLower(day.String()))
	}
	return names, invalid
}

func normalizeAlertIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// ParseDuration accepts Go duration strings plus a whole-day suffix such as "2d".
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

// FormatDuration renders d compactly, for example "2h" or "1h30m".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
