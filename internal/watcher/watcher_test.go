package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/recurrence"
)

type sourceStub struct {
	mu     sync.Mutex
	active []application.ActiveSchedule
	err    error
	calls  int
}

func (s *sourceStub) ActiveSchedules(ctx context.Context, at time.Time) ([]application.ActiveSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.active, s.err
}

func (s *sourceStub) set(active []application.ActiveSchedule, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active, s.err = active, err
}

type notifierStub struct {
	mu     sync.Mutex
	infos  []string
	errors []error
}

func (n *notifierStub) Info(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
}

func (n *notifierStub) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
}

type observerStub struct {
	mu    sync.Mutex
	calls [][3]int
}

func (o *observerStub) ObserveTransitions(started, ended, open int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, [3]int{started, ended, open})
}

// blockingSource holds every call until release is closed, ignoring ctx.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *blockingSource) ActiveSchedules(ctx context.Context, at time.Time) ([]application.ActiveSchedule, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeItem(id int64, name string, start time.Time) application.ActiveSchedule {
	return application.ActiveSchedule{
		Schedule:   application.DowntimeSchedule{ID: id, Name: name},
		Occurrence: recurrence.Occurrence{ScheduleID: id, Start: start, End: start.Add(time.Hour)},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Spec: "not a spec"}, &sourceStub{}, nil, discardLogger()); err == nil {
		t.Fatalf("expected invalid spec to be rejected")
	}
	w, err := New(Config{}, &sourceStub{}, nil, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if w.spec != DefaultSpec {
		t.Fatalf("expected default spec, got %q", w.spec)
	}
	if _, err := New(Config{Spec: "*/5 * * * *"}, &sourceStub{}, nil, discardLogger()); err != nil {
		t.Fatalf("expected standard spec to parse, got %v", err)
	}
}

func TestWatcher_Evaluate(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 3, 2, 0, 0, 0, time.UTC)
	source := &sourceStub{}
	notifier := &notifierStub{}
	observer := &observerStub{}
	w, err := New(Config{Location: time.UTC, Observer: observer}, source, notifier, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()

	source.set([]application.ActiveSchedule{activeItem(2, "nightly", base), activeItem(1, "upgrade", base)}, nil)
	tr, err := w.Evaluate(ctx, base)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(tr.Started) != 2 || tr.Started[0].Schedule.ID != 1 || len(tr.Ended) != 0 {
		t.Fatalf("unexpected first transitions %+v", tr)
	}
	if !strings.Contains(notifier.infos[0], `"upgrade" started`) {
		t.Fatalf("unexpected notification %q", notifier.infos[0])
	}

	tr, err = w.Evaluate(ctx, base.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(tr.Started) != 0 || len(tr.Ended) != 0 {
		t.Fatalf("expected no transitions for unchanged windows, got %+v", tr)
	}

	next := base.Add(24 * time.Hour)
	source.set([]application.ActiveSchedule{activeItem(2, "nightly", next)}, nil)
	tr, err = w.Evaluate(ctx, next)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(tr.Ended) != 2 || len(tr.Started) != 1 || tr.Started[0].Schedule.ID != 2 {
		t.Fatalf("expected both windows to end and the next nightly window to start, got %+v", tr)
	}
	if open := w.Open(); len(open) != 1 || open[0].Schedule.ID != 2 {
		t.Fatalf("unexpected open windows %+v", open)
	}
	if len(notifier.infos) != 5 {
		t.Fatalf("expected 5 notifications, got %d: %v", len(notifier.infos), notifier.infos)
	}
	want := [][3]int{{2, 0, 2}, {0, 0, 2}, {1, 2, 1}}
	if len(observer.calls) != len(want) {
		t.Fatalf("expected %d observations, got %v", len(want), observer.calls)
	}
	for i := range want {
		if observer.calls[i] != want[i] {
			t.Fatalf("observation %d: expected %v, got %v", i, want[i], observer.calls[i])
		}
	}
}

func TestWatcher_EvaluateError(t *testing.T) {
	t.Parallel()

	source := &sourceStub{err: errors.New("db closed")}
	notifier := &notifierStub{}
	w, err := New(Config{}, source, notifier, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := w.Evaluate(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected source error")
	}

	w.tick(context.Background())
	if len(notifier.errors) != 1 {
		t.Fatalf("expected tick to notify the failure, got %v", notifier.errors)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	t.Parallel()

	source := &sourceStub{}
	w, err := New(Config{Spec: "@every 1h"}, source, &notifierStub{}, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		source.mu.Lock()
		calls := source.calls
		source.mu.Unlock()
		if calls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected an immediate evaluation after Start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.Stop()
	w.Stop()
}

func TestWatcher_StopWaitsForInitialCheck(t *testing.T) {
	t.Parallel()

	source := newBlockingSource()
	observer := &observerStub{}
	w, err := New(Config{Spec: "@every 1h", Observer: observer}, source, &notifierStub{}, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case <-source.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the initial check to reach the source")
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned while the initial check was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(source.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after the initial check finished")
	}

	observer.mu.Lock()
	calls := len(observer.calls)
	observer.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected the initial check to complete before Stop returned, got %d observations", calls)
	}
}
