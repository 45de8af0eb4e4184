package downtime

// Repeat types understood by the recurrence engine.
const (
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
)

// Recurrence describes how a downtime window repeats. Every field is optional;
// a nil *Recurrence means the window does not recur.
type Recurrence struct {
	StartTime  string `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	Duration   string `json:"duration,omitempty" yaml:"duration,omitempty"`
	RepeatType string `json:"repeatType" yaml:"repeatType"`
	// RepeatOn is nil when absent. A present but empty list is kept as such.
	RepeatOn []string `json:"repeatOn" yaml:"repeatOn"`
}

// Window is the time specification of a downtime schedule.
type Window struct {
	Timezone   string      `json:"timezone" yaml:"timezone"`
	StartTime  string      `json:"startTime" yaml:"startTime"`
	EndTime    string      `json:"endTime" yaml:"endTime"`
	Recurrence *Recurrence `json:"recurrence" yaml:"recurrence"`
}

// ScheduleData is the user editable body of a downtime schedule.
type ScheduleData struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Schedule    Window   `json:"schedule" yaml:"schedule"`
	AlertIDs    []string `json:"alertIds" yaml:"alertIds"`
}

// Schedule is a stored downtime schedule as exchanged over the API.
type Schedule struct {
	ID int64 `json:"id"`
	ScheduleData
	CreatedAt string `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`

	DurationText   string `json:"durationText,omitempty"`
	RecurrenceText string `json:"recurrenceText,omitempty"`
}

// UpsertPayload is one create-or-update submission. An ID of zero or less
// means the schedule does not exist yet.
type UpsertPayload struct {
	ID   int64        `json:"id,omitempty" yaml:"id,omitempty"`
	Data ScheduleData `json:"data" yaml:"data"`
}

// Occurrence is one concrete window of a schedule. Times are RFC 3339.
type Occurrence struct {
	ScheduleID int64  `json:"scheduleId"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// ActiveSchedule is a schedule together with the window currently in effect.
type ActiveSchedule struct {
	Schedule   Schedule   `json:"schedule"`
	Occurrence Occurrence `json:"occurrence"`
}

// AlertOption is a selectable alert rule in the schedule form.
type AlertOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DefaultInitialValues returns the blank form model for a new schedule.
func DefaultInitialValues() ScheduleData {
	return ScheduleData{
		Name:        "",
		Description: "",
		Schedule: Window{
			Timezone:   "",
			StartTime:  "",
			EndTime:    "",
			Recurrence: nil,
		},
		AlertIDs: []string{},
	}
}
