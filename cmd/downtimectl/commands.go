package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/dashboard"
	"github.com/example/downtime-scheduler/internal/downtime"
)

func runList(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("list")
	search := fs.String("search", "", "only show schedules whose name or description contains this text")
	sortBy := fs.String("sort", "", "sort column: name, startTime or createdAt")
	desc := fs.Bool("desc", false, "sort in descending order")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	switch *sortBy {
	case "", dashboard.ColumnName, dashboard.ColumnStartTime, dashboard.ColumnCreatedAt:
	default:
		fmt.Fprintf(c.io.err, "unknown sort column %q\n", *sortBy)
		return errUsage
	}

	api, err := c.client()
	if err != nil {
		return err
	}
	state := dashboard.NewListState(func(ctx context.Context) ([]downtime.Schedule, error) {
		return api.List(ctx, "")
	})
	state.SetSearch(*search)
	order := dashboard.OrderAscend
	if *desc {
		order = dashboard.OrderDescend
	}
	state.SetSortOrder(dashboard.SortOrder{ColumnKey: *sortBy, Order: order})

	if err := state.Refetch(ctx); err != nil {
		return err
	}
	return c.printSchedules(state.Visible())
}

func runApply(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("apply")
	file := fs.String("f", "", "YAML schedule file, - reads stdin")
	id := fs.Int64("id", 0, "update the schedule with this id instead of creating one")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fmt.Fprintln(c.io.err, "apply requires -f")
		return errUsage
	}

	payload, err := c.readPayload(*file)
	if err != nil {
		return err
	}
	if *id > 0 {
		payload.ID = *id
	}

	api, err := c.client()
	if err != nil {
		return err
	}
	saved, err := downtime.CreateOrUpdate(ctx, api, payload)
	if err != nil {
		return err
	}

	verb := "created"
	if payload.ID > 0 {
		verb = "updated"
	}
	c.notifier.Success(fmt.Sprintf("Schedule %d %s: %s", saved.ID, verb, saved.Name))
	return c.printSchedules([]downtime.Schedule{saved})
}

func runDelete(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("delete")
	id := fs.Int64("id", 0, "id of the schedule to delete")
	search := fs.String("search", "", "search filter applied before the delete, cleared on success")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	api, err := c.client()
	if err != nil {
		return err
	}
	state := dashboard.NewListState(func(ctx context.Context) ([]downtime.Schedule, error) {
		return api.List(ctx, "")
	})
	state.SetSearch(*search)
	state.ShowDeleteModal(*id)
	deleteID, _ := state.PendingDelete()

	var refetchErr error
	err = downtime.HandleDelete(ctx, downtime.DeleteParams{
		Delete:        api.Delete,
		Notifications: c.notifier,
		DeleteID:      deleteID,
		HideModal:     state.HideDeleteModal,
		ClearSearch:   state.ClearSearch,
		Refetch:       func() { refetchErr = state.Refetch(ctx) },
	})
	if err != nil {
		return reportedError{err: err}
	}
	if refetchErr != nil {
		return refetchErr
	}
	return c.printSchedules(state.Visible())
}

func runOccurrences(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("occurrences")
	id := fs.Int64("id", 0, "schedule id")
	from := fs.String("from", "", "range start, RFC 3339 (default now)")
	to := fs.String("to", "", "range end, RFC 3339 (default one week after from)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Fprintln(c.io.err, "occurrences requires a positive -id")
		return errUsage
	}
	fromTime, err := parseOptionalTime("from", *from)
	if err != nil {
		return err
	}
	toTime, err := parseOptionalTime("to", *to)
	if err != nil {
		return err
	}

	api, err := c.client()
	if err != nil {
		return err
	}
	occurrences, err := api.Occurrences(ctx, *id, fromTime, toTime)
	if err != nil {
		return err
	}
	if len(occurrences) == 0 {
		fmt.Fprintln(c.io.out, "No occurrences in range")
		return nil
	}

	tw := tabwriter.NewWriter(c.io.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tDURATION")
	for _, o := range occurrences {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			c.formatter.FormatDateTime(o.Start),
			c.formatter.FormatDateTime(o.End),
			c.formatter.Duration(o.Start, o.End))
	}
	return tw.Flush()
}

func runActive(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("active")
	at := fs.String("at", "", "instant to evaluate, RFC 3339 (default now)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	atTime, err := parseOptionalTime("at", *at)
	if err != nil {
		return err
	}

	api, err := c.client()
	if err != nil {
		return err
	}
	active, err := api.Active(ctx, atTime)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Fprintln(c.io.out, "No downtime in effect")
		return nil
	}

	tw := tabwriter.NewWriter(c.io.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSINCE\tUNTIL\tALERTS")
	for _, item := range active {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			item.Schedule.ID,
			item.Schedule.Name,
			c.formatter.FormatDateTime(item.Occurrence.Start),
			c.formatter.FormatDateTime(item.Occurrence.End),
			alertList(item.Schedule.AlertIDs))
	}
	return tw.Flush()
}

func runTemplate(_ context.Context, c *cli, args []string) error {
	fs := c.flagSet("template")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.io.out)
	enc.SetIndent(2)
	if err := enc.Encode(downtime.DefaultInitialValues()); err != nil {
		return err
	}
	return enc.Close()
}

func runHashPassword(_ context.Context, c *cli, args []string) error {
	fs := c.flagSet("hash-password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	line, err := bufio.NewReader(c.io.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := application.CreatePasswordHash(password, application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Fprintln(c.io.out, hash)
	return nil
}

// readPayload decodes a schedule file. The file holds either a bare schedule
// body or an {id, data} document.
func (c *cli) readPayload(path string) (downtime.UpsertPayload, error) {
	var r io.Reader = c.io.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return downtime.UpsertPayload{}, err
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return downtime.UpsertPayload{}, fmt.Errorf("read schedule file: %w", err)
	}

	var doc struct {
		ID   int64                  `yaml:"id"`
		Data *downtime.ScheduleData `yaml:"data"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return downtime.UpsertPayload{}, fmt.Errorf("parse schedule file: %w", err)
	}
	if doc.Data != nil {
		return downtime.UpsertPayload{ID: doc.ID, Data: *doc.Data}, nil
	}

	var data downtime.ScheduleData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return downtime.UpsertPayload{}, fmt.Errorf("parse schedule file: %w", err)
	}
	return downtime.UpsertPayload{ID: doc.ID, Data: data}, nil
}

func (c *cli) printSchedules(schedules []downtime.Schedule) error {
	if len(schedules) == 0 {
		fmt.Fprintln(c.io.out, "No downtime schedules found")
		return nil
	}

	tw := tabwriter.NewWriter(c.io.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tDURATION\tRECURRENCE\tALERTS")
	for _, s := range schedules {
		s = c.formatter.Decorate(s)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Name,
			c.formatter.FormatDateTime(s.Schedule.StartTime),
			c.formatter.FormatDateTime(s.Schedule.EndTime),
			s.DurationText,
			s.RecurrenceText,
			alertList(s.AlertIDs))
	}
	return tw.Flush()
}

func parseOptionalTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q: expected RFC 3339", name, value)
	}
	return ts, nil
}

func alertList(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}
