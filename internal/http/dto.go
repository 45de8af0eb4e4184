package http

import (
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/downtime"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

type listSchedulesResponse struct {
	Schedules []downtime.Schedule `json:"schedules"`
}

type scheduleResponse struct {
	Schedule downtime.Schedule `json:"schedule"`
}

type occurrencesResponse struct {
	Occurrences []downtime.Occurrence `json:"occurrences"`
}

type activeSchedulesResponse struct {
	At     string                    `json:"at"`
	Active []downtime.ActiveSchedule `json:"active"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// toScheduleDTO renders timestamps in the schedule's own zone so that the
// offset survives a round trip through the form model.
func toScheduleDTO(schedule application.DowntimeSchedule, formatter downtime.Formatter) downtime.Schedule {
	loc := schedule.Location()
	dto := downtime.Schedule{
		ID: schedule.ID,
		ScheduleData: downtime.ScheduleData{
			Name:        schedule.Name,
			Description: schedule.Description,
			Schedule: downtime.Window{
				Timezone:  schedule.Timezone,
				StartTime: formatOptionalTime(schedule.StartTime, loc),
				EndTime:   formatOptionalTime(schedule.EndTime, loc),
			},
			AlertIDs: schedule.AlertIDs,
		},
		CreatedAt: formatTime(schedule.CreatedAt, time.UTC),
		CreatedBy: schedule.CreatedBy,
		UpdatedAt: formatTime(schedule.UpdatedAt, time.UTC),
		UpdatedBy: schedule.UpdatedBy,
	}
	if dto.AlertIDs == nil {
		dto.AlertIDs = []string{}
	}
	if rec := schedule.Recurrence; rec != nil {
		dto.Schedule.Recurrence = &downtime.Recurrence{
			StartTime:  formatTime(rec.StartTime, loc),
			EndTime:    formatOptionalTime(rec.EndTime, loc),
			Duration:   application.FormatDuration(rec.Duration),
			RepeatType: string(rec.RepeatType),
			RepeatOn:   rec.RepeatOn,
		}
	}
	return formatter.Decorate(dto)
}

func toScheduleDTOs(schedules []application.DowntimeSchedule, formatter downtime.Formatter) []downtime.Schedule {
	result := make([]downtime.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		result = append(result, toScheduleDTO(schedule, formatter))
	}
	return result
}

func toOccurrenceDTO(occ recurrence.Occurrence, loc *time.Location) downtime.Occurrence {
	return downtime.Occurrence{
		ScheduleID: occ.ScheduleID,
		Start:      formatTime(occ.Start, loc),
		End:        formatTime(occ.End, loc),
	}
}

func toOccurrenceDTOs(occurrences []recurrence.Occurrence, loc *time.Location) []downtime.Occurrence {
	result := make([]downtime.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		result = append(result, toOccurrenceDTO(occ, loc))
	}
	return result
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func formatOptionalTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return formatTime(*t, loc)
}
