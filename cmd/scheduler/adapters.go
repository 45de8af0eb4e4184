package main

import (
	"context"
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/persistence"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

type downtimeRepositoryAdapter struct {
	repo persistence.DowntimeScheduleRepository
}

func newDowntimeRepositoryAdapter(repo persistence.DowntimeScheduleRepository) *downtimeRepositoryAdapter {
	return &downtimeRepositoryAdapter{repo: repo}
}

func (a *downtimeRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.DowntimeSchedule) (application.DowntimeSchedule, error) {
	stored, err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule))
	if err != nil {
		return application.DowntimeSchedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *downtimeRepositoryAdapter) UpdateSchedule(ctx context.Context, schedule application.DowntimeSchedule) error {
	return a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule))
}

func (a *downtimeRepositoryAdapter) GetSchedule(ctx context.Context, id int64) (application.DowntimeSchedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.DowntimeSchedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *downtimeRepositoryAdapter) ListSchedules(ctx context.Context, search string) ([]application.DowntimeSchedule, error) {
	models, err := a.repo.ListSchedules(ctx, persistence.ScheduleFilter{Search: search})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.DowntimeSchedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

func (a *downtimeRepositoryAdapter) DeleteSchedule(ctx context.Context, id int64) error {
	return a.repo.DeleteSchedule(ctx, id)
}

func toApplicationSchedule(model persistence.DowntimeSchedule) application.DowntimeSchedule {
	schedule := application.DowntimeSchedule{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Timezone:    model.Timezone,
		StartTime:   cloneTime(model.StartTime),
		EndTime:     cloneTime(model.EndTime),
		AlertIDs:    cloneStrings(model.AlertIDs),
		CreatedAt:   model.CreatedAt,
		CreatedBy:   model.CreatedBy,
		UpdatedAt:   model.UpdatedAt,
		UpdatedBy:   model.UpdatedBy,
	}
	if rec := model.Recurrence; rec != nil {
		freq, _ := recurrence.ParseFrequency(rec.RepeatType)
		duration, _ := application.ParseDuration(rec.Duration)
		schedule.Recurrence = &application.Recurrence{
			RepeatType: freq,
			RepeatOn:   cloneStrings(rec.RepeatOn),
			StartTime:  rec.StartTime,
			EndTime:    cloneTime(rec.EndTime),
			Duration:   duration,
		}
	}
	return schedule
}

func toPersistenceSchedule(schedule application.DowntimeSchedule) persistence.DowntimeSchedule {
	model := persistence.DowntimeSchedule{
		ID:          schedule.ID,
		Name:        schedule.Name,
		Description: schedule.Description,
		Timezone:    schedule.Timezone,
		StartTime:   cloneTime(schedule.StartTime),
		EndTime:     cloneTime(schedule.EndTime),
		AlertIDs:    cloneStrings(schedule.AlertIDs),
		CreatedAt:   schedule.CreatedAt,
		CreatedBy:   schedule.CreatedBy,
		UpdatedAt:   schedule.UpdatedAt,
		UpdatedBy:   schedule.UpdatedBy,
	}
	if rec := schedule.Recurrence; rec != nil {
		model.Recurrence = &persistence.Recurrence{
			RepeatType: string(rec.RepeatType),
			RepeatOn:   cloneStrings(rec.RepeatOn),
			StartTime:  rec.StartTime,
			EndTime:    cloneTime(rec.EndTime),
			Duration:   application.FormatDuration(rec.Duration),
		}
	}
	return model
}

// cloneStrings copies values, keeping an empty non-nil slice non-nil.
func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append(make([]string, 0, len(values)), values...)
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
