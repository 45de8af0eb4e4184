package recurrence

import (
	"errors"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency represents supported recurrence intervals.
type Frequency string

const (
	// FrequencyDaily repeats every day.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly repeats on the selected weekdays.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly repeats on the day of month of the first occurrence.
	FrequencyMonthly Frequency = "monthly"
)

const defaultMaxOccurrences = 5000

// Rule describes a recurring downtime window.
type Rule struct {
	ScheduleID int64
	Frequency  Frequency
	Weekdays   []time.Weekday
	StartsOn   time.Time
	EndsOn     *time.Time
	Duration   time.Duration
	// Location is the zone the rule repeats in. Nil uses the engine location.
	Location *time.Location
}

// GenerateOptions defines optional range bounds for occurrence generation.
type GenerateOptions struct {
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// Occurrence is one concrete downtime window.
type Occurrence struct {
	ScheduleID int64
	Start      time.Time
	End        time.Time
}

// Contains reports whether at falls within [Start, End).
func (o Occurrence) Contains(at time.Time) bool {
	return !at.Before(o.Start) && at.Before(o.End)
}

// Engine expands recurrence rules into occurrences.
type Engine struct {
	location       *time.Location
	maxOccurrences int
}

// NewEngine constructs an Engine whose default rule location is loc.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc, maxOccurrences: defaultMaxOccurrences}
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidWindow indicates the generation window is unbounded.
var ErrInvalidWindow = errors.New("recurrence: generation window requires an end bound")

// ErrInvalidDuration indicates the window duration is invalid.
var ErrInvalidDuration = errors.New("recurrence: duration must be positive")

// ParseFrequency maps a repeat type label to a Frequency, ignoring case.
func ParseFrequency(value string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(value))) {
	case FrequencyDaily:
		return FrequencyDaily, true
	case FrequencyWeekly:
		return FrequencyWeekly, true
	case FrequencyMonthly:
		return FrequencyMonthly, true
	default:
		return "", false
	}
}

// ParseWeekday maps an English weekday name or its three letter
// abbreviation to a time.Weekday, ignoring case.
func ParseWeekday(value string) (time.Weekday, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) < 3 {
		return 0, false
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if value == name || value == name[:3] {
			return day, true
		}
	}
	return 0, false
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Options converts rule into rrule options anchored in the rule location.
func (e *Engine) Options(rule Rule) (rrule.ROption, error) {
	var freq rrule.Frequency
	switch rule.Frequency {
	case FrequencyDaily:
		freq = rrule.DAILY
	case FrequencyWeekly:
		freq = rrule.WEEKLY
	case FrequencyMonthly:
		freq = rrule.MONTHLY
	default:
		return rrule.ROption{}, ErrInvalidFrequency
	}
	if rule.Duration <= 0 {
		return rrule.ROption{}, ErrInvalidDuration
	}

	loc := e.ruleLocation(rule)
	opt := rrule.ROption{
		Freq:    freq,
		Dtstart: rule.StartsOn.In(loc),
	}
	if rule.EndsOn != nil {
		opt.Until = rule.EndsOn.In(loc)
	}
	if rule.Frequency == FrequencyWeekly {
		for _, day := range rule.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[day])
		}
	}
	return opt, nil
}

// RRuleString renders the RRULE value (without DTSTART) for rule.
func (e *Engine) RRuleString(rule Rule) (string, error) {
	opt, err := e.Options(rule)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// GenerateOccurrences produces the occurrences overlapping the window bounded
// by the rule's EndsOn and the optional range. Occurrences that started before
// RangeStart but are still running at RangeStart are included. At most the
// engine cap of occurrences is returned.
func (e *Engine) GenerateOccurrences(rule Rule, opts GenerateOptions) ([]Occurrence, error) {
	opt, err := e.Options(rule)
	if err != nil {
		return nil, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	loc := e.ruleLocation(rule)

	var upper time.Time
	switch {
	case opts.RangeEnd != nil && rule.EndsOn != nil:
		upper = *opts.RangeEnd
		if rule.EndsOn.Before(upper) {
			upper = *rule.EndsOn
		}
	case opts.RangeEnd != nil:
		upper = *opts.RangeEnd
	case rule.EndsOn != nil:
		upper = *rule.EndsOn
	default:
		return nil, ErrInvalidWindow
	}

	lower := rule.StartsOn
	if opts.RangeStart != nil && opts.RangeStart.After(lower) {
		lower = *opts.RangeStart
	}
	if lower.After(upper) {
		return nil, nil
	}

	starts := r.Between(lower.Add(-rule.Duration).In(loc), upper.In(loc), true)
	occurrences := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		occ := Occurrence{ScheduleID: rule.ScheduleID, Start: start, End: start.Add(rule.Duration)}
		if opts.RangeStart != nil && !occ.End.After(*opts.RangeStart) {
			continue
		}
		occurrences = append(occurrences, occ)
		if len(occurrences) >= e.maxOccurrences {
			break
		}
	}
	return occurrences, nil
}

// ActiveOccurrence returns the occurrence of rule covering at, if any.
func (e *Engine) ActiveOccurrence(rule Rule, at time.Time) (Occurrence, bool, error) {
	opt, err := e.Options(rule)
	if err != nil {
		return Occurrence{}, false, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return Occurrence{}, false, err
	}

	start := r.Before(at.In(e.ruleLocation(rule)), true)
	if start.IsZero() {
		return Occurrence{}, false, nil
	}
	occ := Occurrence{ScheduleID: rule.ScheduleID, Start: start, End: start.Add(rule.Duration)}
	if !occ.Contains(at) {
		return Occurrence{}, false, nil
	}
	return occ, true, nil
}

// NextOccurrence returns the first occurrence of rule starting strictly after at.
func (e *Engine) NextOccurrence(rule Rule, at time.Time) (Occurrence, bool, error) {
	opt, err := e.Options(rule)
	if err != nil {
		return Occurrence{}, false, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return Occurrence{}, false, err
	}

	start := r.After(at.In(e.ruleLocation(rule)), false)
	if start.IsZero() {
		return Occurrence{}, false, nil
	}
	return Occurrence{ScheduleID: rule.ScheduleID, Start: start, End: start.Add(rule.Duration)}, true, nil
}

func (e *Engine) ruleLocation(rule Rule) *time.Location {
	if rule.Location != nil {
		return rule.Location
	}
	if e.location != nil {
		return e.location
	}
	return time.UTC
}
