package recurrence

import (
	"testing"
	"time"
)

func BenchmarkEngineGenerateOccurrences(b *testing.B) {
	tokyo := time.FixedZone("JST", 9*60*60)
	engine := NewEngine(tokyo)
	start := time.Date(2024, 5, 6, 2, 0, 0, 0, tokyo)
	until := start.AddDate(0, 3, 0)

	rule := Rule{
		ScheduleID: 1,
		Frequency:  FrequencyWeekly,
		Weekdays: []time.Weekday{
			time.Monday,
			time.Tuesday,
			time.Wednesday,
			time.Thursday,
			time.Friday,
		},
		StartsOn: start,
		EndsOn:   &until,
		Duration: 90 * time.Minute,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		occurrences, err := engine.GenerateOccurrences(rule, GenerateOptions{})
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(occurrences) == 0 {
			b.Fatal("expected occurrences to be generated")
		}
	}
}

func BenchmarkEngineActiveOccurrence(b *testing.B) {
	engine := NewEngine(time.UTC)
	start := time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC)
	rule := Rule{ScheduleID: 1, Frequency: FrequencyDaily, StartsOn: start, Duration: time.Hour}
	at := time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := engine.ActiveOccurrence(rule, at); err != nil || !ok {
			b.Fatalf("expected active occurrence, got %v %v", ok, err)
		}
	}
}
