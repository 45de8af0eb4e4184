// Package sqlite implements the persistence repositories on an embedded
// SQLite database through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/downtime-scheduler/internal/persistence"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const busyTimeout = 5 * time.Second

// Storage provides the SQLite backed persistence layer.
type Storage struct {
	db *sql.DB
}

var _ persistence.DowntimeScheduleRepository = (*Storage)(nil)

// Open returns a Storage for dsn. Call Migrate before first use.
func Open(dsn string) (*Storage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Storage{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies connection pragmas and creates the schema if needed.
// In-memory databases keep the "memory" journal; any other database must
// end up in WAL mode.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		return fmt.Errorf("sqlite: set journal_mode: %w", err)
	}
	switch strings.ToLower(mode) {
	case "wal", "memory":
	default:
		return fmt.Errorf("sqlite: journal_mode is %q, want wal", mode)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		return fmt.Errorf("sqlite: set synchronous: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// JournalMode reports the journal mode of the open database.
func (s *Storage) JournalMode(ctx context.Context) (string, error) {
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", fmt.Errorf("sqlite: read journal_mode: %w", err)
	}
	return strings.ToLower(mode), nil
}

const scheduleColumns = `id, name, description, timezone, start_time, end_time, recurrence, alert_ids, created_at, created_by, updated_at, updated_by`

// CreateSchedule inserts a schedule and returns it with its assigned ID.
func (s *Storage) CreateSchedule(ctx context.Context, schedule persistence.DowntimeSchedule) (persistence.DowntimeSchedule, error) {
	row, err := toRow(schedule)
	if err != nil {
		return persistence.DowntimeSchedule{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO downtime_schedules (name, description, timezone, start_time, end_time, recurrence, alert_ids, created_at, created_by, updated_at, updated_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		row.name, row.description, row.timezone, row.startTime, row.endTime, row.recurrence, row.alertIDs,
		row.createdAt, row.createdBy, row.updatedAt, row.updatedBy,
	)
	if err != nil {
		return persistence.DowntimeSchedule{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return persistence.DowntimeSchedule{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}
	return s.GetSchedule(ctx, id)
}

// UpdateSchedule replaces the stored schedule with the same ID.
// Creation metadata is never overwritten.
func (s *Storage) UpdateSchedule(ctx context.Context, schedule persistence.DowntimeSchedule) error {
	row, err := toRow(schedule)
	if err != nil {
		return err
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM downtime_schedules WHERE id = ?`, schedule.ID).Scan(&exists); err != nil {
			return mapError(err)
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE downtime_schedules
			    SET name = ?, description = ?, timezone = ?, start_time = ?, end_time = ?, recurrence = ?, alert_ids = ?,
			        updated_at = ?, updated_by = ?
			  WHERE id = ?`,
			row.name, row.description, row.timezone, row.startTime, row.endTime, row.recurrence, row.alertIDs,
			row.updatedAt, row.updatedBy, schedule.ID,
		)
		return mapError(err)
	})
}

// GetSchedule retrieves a schedule by ID.
func (s *Storage) GetSchedule(ctx context.Context, id int64) (persistence.DowntimeSchedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM downtime_schedules WHERE id = ?`, id)
	schedule, err := scanSchedule(row)
	if err != nil {
		return persistence.DowntimeSchedule{}, mapError(err)
	}
	return schedule, nil
}

// ListSchedules returns the schedules matching filter ordered by ID.
func (s *Storage) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.DowntimeSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM downtime_schedules`
	var args []any
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query += ` WHERE lower(name) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var schedules []persistence.DowntimeSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule by ID.
func (s *Storage) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downtime_schedules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type scheduleRow struct {
	name        string
	description string
	timezone    string
	startTime   sql.NullString
	endTime     sql.NullString
	recurrence  sql.NullString
	alertIDs    string
	createdAt   string
	createdBy   string
	updatedAt   string
	updatedBy   string
}

func toRow(schedule persistence.DowntimeSchedule) (scheduleRow, error) {
	row := scheduleRow{
		name:        schedule.Name,
		description: schedule.Description,
		timezone:    schedule.Timezone,
		startTime:   formatNullTime(schedule.StartTime),
		endTime:     formatNullTime(schedule.EndTime),
		createdAt:   formatTime(schedule.CreatedAt),
		createdBy:   schedule.CreatedBy,
		updatedAt:   formatTime(schedule.UpdatedAt),
		updatedBy:   schedule.UpdatedBy,
	}

	if schedule.Recurrence != nil {
		encoded, err := json.Marshal(schedule.Recurrence)
		if err != nil {
			return scheduleRow{}, fmt.Errorf("sqlite: encode recurrence: %w", err)
		}
		row.recurrence = sql.NullString{String: string(encoded), Valid: true}
	}

	alertIDs := schedule.AlertIDs
	if alertIDs == nil {
		alertIDs = []string{}
	}
	encoded, err := json.Marshal(alertIDs)
	if err != nil {
		return scheduleRow{}, fmt.Errorf("sqlite: encode alert ids: %w", err)
	}
	row.alertIDs = string(encoded)
	return row, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(scanner rowScanner) (persistence.DowntimeSchedule, error) {
	var (
		schedule persistence.DowntimeSchedule
		row      scheduleRow
	)
	if err := scanner.Scan(
		&schedule.ID, &row.name, &row.description, &row.timezone, &row.startTime, &row.endTime,
		&row.recurrence, &row.alertIDs, &row.createdAt, &row.createdBy, &row.updatedAt, &row.updatedBy,
	); err != nil {
		return persistence.DowntimeSchedule{}, err
	}

	schedule.Name = row.name
	schedule.Description = row.description
	schedule.Timezone = row.timezone
	schedule.CreatedBy = row.createdBy
	schedule.UpdatedBy = row.updatedBy

	var err error
	if schedule.StartTime, err = parseNullTime(row.startTime); err != nil {
		return persistence.DowntimeSchedule{}, err
	}
	if schedule.EndTime, err = parseNullTime(row.endTime); err != nil {
		return persistence.DowntimeSchedule{}, err
	}
	if schedule.CreatedAt, err = parseTime(row.createdAt); err != nil {
		return persistence.DowntimeSchedule{}, err
	}
	if schedule.UpdatedAt, err = parseTime(row.updatedAt); err != nil {
		return persistence.DowntimeSchedule{}, err
	}

	if row.recurrence.Valid && row.recurrence.String != "" {
		var rec persistence.Recurrence
		if err := json.Unmarshal([]byte(row.recurrence.String), &rec); err != nil {
			return persistence.DowntimeSchedule{}, fmt.Errorf("sqlite: decode recurrence of schedule %d: %w", schedule.ID, err)
		}
		schedule.Recurrence = &rec
	}
	if err := json.Unmarshal([]byte(row.alertIDs), &schedule.AlertIDs); err != nil {
		return persistence.DowntimeSchedule{}, fmt.Errorf("sqlite: decode alert ids of schedule %d: %w", schedule.ID, err)
	}
	return schedule, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", value, err)
	}
	return ts, nil
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	ts, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
