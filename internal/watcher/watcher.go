// Package watcher periodically checks which downtime windows are in effect
// and reports windows that opened or closed since the previous check.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

// DefaultSpec checks once a minute.
const DefaultSpec = "@every 1m"

// ActiveSource reports the schedules in effect at an instant.
type ActiveSource interface {
	ActiveSchedules(ctx context.Context, at time.Time) ([]application.ActiveSchedule, error)
}

// Notifier receives transition messages.
type Notifier interface {
	Info(message string)
	Error(err error)
}

// Observer records the outcome of each check.
type Observer interface {
	ObserveTransitions(started, ended, open int)
}

// Config controls the check cadence.
type Config struct {
	Spec     string
	Location *time.Location
	Observer Observer
}

// Transitions lists the windows that changed state during one evaluation.
type Transitions struct {
	Started []application.ActiveSchedule
	Ended   []application.ActiveSchedule
}

// Watcher tracks open downtime windows between cron ticks.
type Watcher struct {
	source   ActiveSource
	notifier Notifier
	observer Observer
	log      *slog.Logger
	now      func() time.Time

	spec   string
	loc    *time.Location
	parser cron.Parser

	mu      sync.Mutex
	c       *cron.Cron
	cancel  context.CancelFunc
	open    map[int64]application.ActiveSchedule
	initial sync.WaitGroup
}

// New validates cfg and returns a stopped watcher.
func New(cfg Config, source ActiveSource, notifier Notifier, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	spec := strings.TrimSpace(cfg.Spec)
	if spec == "" {
		spec = DefaultSpec
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("watcher: invalid spec %q: %w", spec, err)
	}
	return &Watcher{
		source:   source,
		notifier: notifier,
		observer: cfg.Observer,
		log:      log,
		now:      time.Now,
		spec:     spec,
		loc:      loc,
		parser:   parser,
		open:     map[int64]application.ActiveSchedule{},
	}, nil
}

// Start runs an immediate check and then one per cron tick until Stop or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.c != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithParser(w.parser), cron.WithLocation(w.loc))
	if _, err := c.AddFunc(w.spec, func() { w.tick(runCtx) }); err != nil {
		cancel()
		return err
	}
	w.c = c
	w.cancel = cancel

	w.initial.Add(1)
	go func() {
		defer w.initial.Done()
		w.tick(runCtx)
	}()
	c.Start()
	w.log.Info("downtime watcher started", slog.String("spec", w.spec), slog.String("tz", w.loc.String()))
	return nil
}

// Stop halts the cron loop and waits for running checks to finish,
// including the immediate one issued by Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	c, cancel := w.c, w.cancel
	w.c, w.cancel = nil, nil
	w.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	w.initial.Wait()
	w.log.Info("downtime watcher stopped")
}

func (w *Watcher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.Evaluate(ctx, w.now()); err != nil {
		w.log.ErrorContext(ctx, "downtime evaluation failed", "error", err)
		if w.notifier != nil {
			w.notifier.Error(fmt.Errorf("downtime evaluation failed: %w", err))
		}
	}
}

// Evaluate compares the schedules active at now with the previous evaluation
// and notifies about every window that started or ended. A schedule whose
// window moved to its next occurrence counts as ended and started again.
func (w *Watcher) Evaluate(ctx context.Context, now time.Time) (Transitions, error) {
	active, err := w.source.ActiveSchedules(ctx, now)
	if err != nil {
		return Transitions{}, err
	}

	w.mu.Lock()
	current := make(map[int64]application.ActiveSchedule, len(active))
	for _, item := range active {
		current[item.Schedule.ID] = item
	}

	var tr Transitions
	for id, prev := range w.open {
		cur, ok := current[id]
		if !ok || !sameWindow(prev.Occurrence, cur.Occurrence) {
			tr.Ended = append(tr.Ended, prev)
		}
	}
	for id, cur := range current {
		prev, ok := w.open[id]
		if !ok || !sameWindow(prev.Occurrence, cur.Occurrence) {
			tr.Started = append(tr.Started, cur)
		}
	}
	w.open = current
	open := len(current)
	w.mu.Unlock()

	sortByID(tr.Ended)
	sortByID(tr.Started)

	for _, item := range tr.Ended {
		w.announce(ctx, "ended", item)
	}
	for _, item := range tr.Started {
		w.announce(ctx, "started", item)
	}
	if w.observer != nil {
		w.observer.ObserveTransitions(len(tr.Started), len(tr.Ended), open)
	}
	return tr, nil
}

// Open returns the windows seen as active by the last evaluation, ordered by schedule id.
func (w *Watcher) Open() []application.ActiveSchedule {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]application.ActiveSchedule, 0, len(w.open))
	for _, item := range w.open {
		out = append(out, item)
	}
	sortByID(out)
	return out
}

func (w *Watcher) announce(ctx context.Context, state string, item application.ActiveSchedule) {
	msg := fmt.Sprintf("Downtime %q %s (%s - %s)",
		item.Schedule.Name, state,
		item.Occurrence.Start.In(w.loc).Format(time.RFC3339),
		item.Occurrence.End.In(w.loc).Format(time.RFC3339),
	)
	w.log.InfoContext(ctx, "downtime window "+state,
		slog.Int64("schedule_id", item.Schedule.ID),
		slog.Time("window_start", item.Occurrence.Start),
		slog.Time("window_end", item.Occurrence.End),
	)
	if w.notifier != nil {
		w.notifier.Info(msg)
	}
}

func sameWindow(a, b recurrence.Occurrence) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

func sortByID(items []application.ActiveSchedule) {
	sort.Slice(items, func(i, j int) bool { return items[i].Schedule.ID < items[j].Schedule.ID })
}
