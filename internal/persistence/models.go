package persistence

import "time"

// DowntimeSchedule represents a planned downtime window stored in persistence.
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

// Recurrence is the repeat configuration of a schedule. It is stored as a
// JSON document next to the schedule row.
type Recurrence struct {
	RepeatType string     `json:"repeatType"`
	// RepeatOn is null when absent and [] when present but empty.
	RepeatOn   []string   `json:"repeatOn"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Duration   string     `json:"duration"`
}
