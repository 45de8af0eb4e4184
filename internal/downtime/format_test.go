package downtime

import (
	"strings"
	"testing"
	"time"
)

func TestFormatter_Duration(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)

	cases := []struct {
		name  string
		start string
		end   string
		want  string
	}{
		{name: "missing start", start: "", end: "2024-01-01T00:30:00Z", want: "N/A"},
		{name: "missing end", start: "2024-01-01T00:00:00Z", end: "", want: "N/A"},
		{name: "minutes", start: "2024-01-01T00:00:00Z", end: "2024-01-01T00:30:00Z", want: "30 min"},
		{name: "zero", start: "2024-01-01T00:00:00Z", end: "2024-01-01T00:00:00Z", want: "0 min"},
		{name: "floor minutes", start: "2024-01-01T00:00:00Z", end: "2024-01-01T00:59:59Z", want: "59 min"},
		{name: "whole hours", start: "2024-01-01T00:00:00Z", end: "2024-01-01T02:00:00Z", want: "2 hours"},
		{name: "exactly one hour", start: "2024-01-01T00:00:00Z", end: "2024-01-01T01:00:00Z", want: "1 hours"},
		{name: "remainder dropped", start: "2024-01-01T00:00:00Z", end: "2024-01-01T01:30:00Z", want: "1 hours"},
		{name: "reversed order", start: "2024-01-01T02:00:00Z", end: "2024-01-01T00:00:00Z", want: "2 hours"},
		{name: "mixed offsets", start: "2024-01-01T09:00:00+09:00", end: "2024-01-01T00:45:00Z", want: "45 min"},
		{name: "unparseable", start: "yesterday", end: "2024-01-01T00:00:00Z", want: "NaN hours"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Duration(tc.start, tc.end); got != tc.want {
				t.Fatalf("Duration(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestFormatter_FormatDateTime(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)

	if got := f.FormatDateTime(""); got != NotAvailable {
		t.Fatalf("expected N/A for empty input, got %q", got)
	}
	if got := f.FormatDateTime("not a date"); got != InvalidDate {
		t.Fatalf("expected Invalid Date, got %q", got)
	}
	if got := f.FormatDateTime("2024-01-05T15:05:00Z"); got != "Jan 05, 2024, 3:05 PM" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if got := f.FormatDateTime("2024-01-05"); got != "Jan 05, 2024, 12:00 AM" {
		t.Fatalf("date-only values should be UTC midnight, got %q", got)
	}

	tokyo := NewFormatter(time.FixedZone("JST", 9*60*60))
	if got := tokyo.FormatDateTime("2024-01-05T15:05:00Z"); got != "Jan 06, 2024, 12:05 AM" {
		t.Fatalf("expected conversion to display location, got %q", got)
	}
	if got := tokyo.FormatDateTime("2024-01-05T15:05:00"); got != "Jan 05, 2024, 3:05 PM" {
		t.Fatalf("expected offset-less value in display location, got %q", got)
	}
}

func TestFormatter_Parse(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	f := NewFormatter(jst)

	cases := []struct {
		value string
		want  time.Time
	}{
		{value: "2024-01-05T15:05:00Z", want: time.Date(2024, 1, 5, 15, 5, 0, 0, time.UTC)},
		{value: "2024-01-05T15:05:00.5+02:00", want: time.Date(2024, 1, 5, 13, 5, 0, 500_000_000, time.UTC)},
		{value: "2024-01-05T15:05Z", want: time.Date(2024, 1, 5, 15, 5, 0, 0, time.UTC)},
		{value: "2024-01-05 15:05:00+09:00", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "2024-01-05 15:05Z", want: time.Date(2024, 1, 5, 15, 5, 0, 0, time.UTC)},
		{value: "2024-01-05T15:05:00", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "2024-01-05T15:05", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "2024-01-05 15:05:30.250", want: time.Date(2024, 1, 5, 15, 5, 30, 250_000_000, jst)},
		{value: "2024-01-05 15:05", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "2024/01/05 15:05:30", want: time.Date(2024, 1, 5, 15, 5, 30, 0, jst)},
		{value: "2024/01/05 15:05", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "2024/01/05", want: time.Date(2024, 1, 5, 0, 0, 0, 0, jst)},
		{value: "Jan 5, 2024 15:05", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
		{value: "Jan 5, 2024", want: time.Date(2024, 1, 5, 0, 0, 0, 0, jst)},
		{value: "January 5, 2024", want: time.Date(2024, 1, 5, 0, 0, 0, 0, jst)},
		{value: "2024-01-05", want: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{value: "  2024-01-05 15:05  ", want: time.Date(2024, 1, 5, 15, 5, 0, 0, jst)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.value, func(t *testing.T) {
			t.Parallel()
			got, ok := f.Parse(tc.value)
			if !ok {
				t.Fatalf("Parse(%q) failed", tc.value)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}

	for _, value := range []string{"", "yesterday", "05/01/2024", "2024-13-01", "2024-01-05 25:00"} {
		if _, ok := f.Parse(value); ok {
			t.Fatalf("expected Parse(%q) to fail", value)
		}
	}

	if got := f.FormatDateTime("2024-01-05 15:05"); got != "Jan 05, 2024, 3:05 PM" {
		t.Fatalf("expected space separated value in display location, got %q", got)
	}
}

func TestFormatter_RecurrenceInfo(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)

	if got := f.RecurrenceInfo(nil); got != "No" {
		t.Fatalf("expected No for nil recurrence, got %q", got)
	}

	t.Run("weekly with days", func(t *testing.T) {
		t.Parallel()
		got := f.RecurrenceInfo(&Recurrence{
			RepeatType: "Weekly",
			RepeatOn:   []string{"Mon", "Wed"},
			StartTime:  "2024-01-05T15:05:00Z",
		})
		if !strings.Contains(got, "on Mon, Wed") {
			t.Fatalf("expected weekday clause, got %q", got)
		}
		if !strings.Contains(got, "Jan 05, 2024, 3:05 PM") {
			t.Fatalf("expected formatted start, got %q", got)
		}
		if want := "Repeats - Weekly on Mon, Wed from Jan 05, 2024, 3:05 PM  "; got != want {
			t.Fatalf("RecurrenceInfo = %q, want %q", got, want)
		}
	})

	t.Run("all clauses", func(t *testing.T) {
		t.Parallel()
		got := f.RecurrenceInfo(&Recurrence{
			RepeatType: "daily",
			StartTime:  "2024-01-05T15:05:00Z",
			EndTime:    "2024-02-05T15:05:00Z",
			Duration:   "2h",
		})
		want := "Repeats - daily  from Jan 05, 2024, 3:05 PM to Feb 05, 2024, 3:05 PM - Duration: 2h"
		if got != want {
			t.Fatalf("RecurrenceInfo = %q, want %q", got, want)
		}
	})

	t.Run("empty but present weekday list", func(t *testing.T) {
		t.Parallel()
		got := f.RecurrenceInfo(&Recurrence{RepeatType: "weekly", RepeatOn: []string{}})
		if want := "Repeats - weekly on  from   "; got != want {
			t.Fatalf("RecurrenceInfo = %q, want %q", got, want)
		}
	})
}

func TestFormatter_Idempotent(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)
	rec := &Recurrence{RepeatType: "weekly", RepeatOn: []string{"monday"}, StartTime: "2024-03-01T08:00:00Z", Duration: "1h"}

	if a, b := f.RecurrenceInfo(rec), f.RecurrenceInfo(rec); a != b {
		t.Fatalf("expected identical output, got %q and %q", a, b)
	}
	if a, b := f.Duration("2024-01-01T00:00:00Z", "2024-01-01T03:10:00Z"), f.Duration("2024-01-01T00:00:00Z", "2024-01-01T03:10:00Z"); a != b {
		t.Fatalf("expected identical output, got %q and %q", a, b)
	}
}

func TestFormatter_Decorate(t *testing.T) {
	t.Parallel()

	f := NewFormatter(time.UTC)
	schedule := Schedule{ID: 3, ScheduleData: ScheduleData{
		Name: "db upgrade",
		Schedule: Window{
			StartTime: "2024-01-01T00:00:00Z",
			EndTime:   "2024-01-01T00:20:00Z",
		},
	}}

	got := f.Decorate(schedule)
	if got.DurationText != "20 min" {
		t.Fatalf("unexpected duration text %q", got.DurationText)
	}
	if got.RecurrenceText != "No" {
		t.Fatalf("unexpected recurrence text %q", got.RecurrenceText)
	}
	if schedule.DurationText != "" {
		t.Fatalf("Decorate must not mutate its argument")
	}
}

func TestPackageLevelHelpers(t *testing.T) {
	t.Parallel()

	if got := Duration("", ""); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
	if got := Duration("2024-01-01T00:00:00Z", "2024-01-01T02:00:00Z"); got != "2 hours" {
		t.Fatalf("expected 2 hours, got %q", got)
	}
	if got := RecurrenceInfo(nil); got != "No" {
		t.Fatalf("expected No, got %q", got)
	}
	if got := FormatDateTime(""); got != "N/A" {
		t.Fatalf("expected N/A, got %q", got)
	}
}
