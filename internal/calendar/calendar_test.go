package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
}

func TestFeed_Write(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 15, 22, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	schedules := []application.DowntimeSchedule{
		{
			ID:          1,
			Name:        "Database upgrade",
			Description: "primary cluster",
			StartTime:   &start,
			EndTime:     &end,
			AlertIDs:    []string{"a1", "a2"},
		},
		{
			ID:   2,
			Name: "Patch window",
			Recurrence: &application.Recurrence{
				RepeatType: recurrence.FrequencyWeekly,
				RepeatOn:   []string{"monday", "wednesday"},
				StartTime:  time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
				Duration:   90 * time.Minute,
			},
		},
		{ID: 3, Name: "incomplete"},
	}

	feed := NewFeed("Planned downtime", nil, fixedNow)
	var buf bytes.Buffer
	if err := feed.Write(&buf, schedules); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ParseCalendar returned error: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	oneOff := events[0]
	if uid := oneOff.GetProperty(ical.ComponentPropertyUniqueId); uid == nil || uid.Value != EventUID(1) {
		t.Fatalf("unexpected uid %+v", uid)
	}
	if summary := oneOff.GetProperty(ical.ComponentPropertySummary); summary == nil || summary.Value != "Database upgrade" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	gotStart, err := oneOff.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt returned error: %v", err)
	}
	if !gotStart.Equal(start) {
		t.Fatalf("expected start %s, got %s", start, gotStart)
	}
	if oneOff.GetProperty(ical.ComponentPropertyRrule) != nil {
		t.Fatalf("expected one-off event to have no RRULE")
	}

	weekly := events[1]
	rrule := weekly.GetProperty(ical.ComponentPropertyRrule)
	if rrule == nil {
		t.Fatalf("expected RRULE on recurring event")
	}
	if !strings.Contains(rrule.Value, "FREQ=WEEKLY") || !strings.Contains(rrule.Value, "BYDAY=MO,WE") {
		t.Fatalf("unexpected RRULE %q", rrule.Value)
	}
	gotEnd, err := weekly.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt returned error: %v", err)
	}
	if want := time.Date(2024, 1, 1, 3, 30, 0, 0, time.UTC); !gotEnd.Equal(want) {
		t.Fatalf("expected end %s, got %s", want, gotEnd)
	}
}

func TestFeed_BuildRejectsInvalidRecurrence(t *testing.T) {
	t.Parallel()

	feed := NewFeed("", nil, fixedNow)
	_, err := feed.Build([]application.DowntimeSchedule{{
		ID: 9,
		Recurrence: &application.Recurrence{
			RepeatType: recurrence.FrequencyDaily,
			StartTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}})
	if err == nil {
		t.Fatalf("expected error for recurrence without duration")
	}
}
