// Package notify delivers user visible outcome events (success, error, info)
// to pluggable sinks such as the service log, a terminal or an in-memory
// history.
package notify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a single user visible event.
type Notification struct {
	Level   Level
	Message string
	Err     error
	At      time.Time
}

// Sink receives notifications. Implementations must be safe for concurrent use.
type Sink interface {
	Send(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

// Send implements Sink.
func (f SinkFunc) Send(n Notification) { f(n) }

// Config controls a Notifier.
type Config struct {
	// RatePerSec caps delivered notifications; zero disables the limit.
	RatePerSec int
}

// Notifier turns outcome calls into notifications for a set of sinks.
// It is safe for concurrent use.
type Notifier struct {
	sinks   []Sink
	limiter *rate.Limiter
	now     func() time.Time
	dropped atomic.Uint64
}

// New returns a Notifier fanning out to sinks.
func New(cfg Config, sinks ...Sink) *Notifier {
	n := &Notifier{now: time.Now}
	for _, s := range sinks {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
	if cfg.RatePerSec > 0 {
		// burst equals the per second rate so short spikes pass through.
		n.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return n
}

// Success reports a completed operation.
func (n *Notifier) Success(message string) {
	n.send(Notification{Level: LevelSuccess, Message: message})
}

// Info reports a state change that is neither success nor failure.
func (n *Notifier) Info(message string) {
	n.send(Notification{Level: LevelInfo, Message: message})
}

// Error reports a failed operation. A nil error is reported as "unknown error".
func (n *Notifier) Error(err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	n.send(Notification{Level: LevelError, Message: err.Error(), Err: err})
}

// Dropped returns how many notifications were discarded by the rate limit.
func (n *Notifier) Dropped() uint64 {
	if n == nil {
		return 0
	}
	return n.dropped.Load()
}

func (n *Notifier) send(note Notification) {
	if n == nil {
		return
	}
	if n.limiter != nil && !n.limiter.Allow() {
		n.dropped.Add(1)
		return
	}
	note.At = n.now()
	for _, s := range n.sinks {
		s.Send(note)
	}
}

// LogSink writes notifications to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "notify")}
}

// Send implements Sink.
func (s *LogSink) Send(n Notification) {
	switch n.Level {
	case LevelError:
		s.logger.Error(n.Message, "level_label", string(n.Level), "error", n.Err)
	default:
		s.logger.Info(n.Message, "level_label", string(n.Level))
	}
}

// WriterSink prints one line per notification, e.g. "[success] View Deleted Successfully".
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[Level]*color.Color
}

// NewWriterSink returns a sink printing plain lines to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// NewColorWriterSink returns a sink printing to w with the level tag colored.
// Colors follow color.NoColor, so they are off when stdout is not a terminal
// or NO_COLOR is set.
func NewColorWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w: w,
		colors: map[Level]*color.Color{
			LevelSuccess: color.New(color.FgGreen),
			LevelError:   color.New(color.FgRed, color.Bold),
			LevelInfo:    color.New(color.FgCyan),
		},
	}
}

// Send implements Sink.
func (s *WriterSink) Send(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := "[" + string(n.Level) + "]"
	if c, ok := s.colors[n.Level]; ok {
		tag = c.Sprint(tag)
	}
	_, _ = fmt.Fprintf(s.w, "%s %s\n", tag, n.Message)
}

const defaultHistoryLimit = 300

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	history []Notification
}

// NewRecorder returns a Recorder keeping at most limit entries (300 when limit <= 0).
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Recorder{limit: limit}
}

// Send implements Sink.
func (r *Recorder) Send(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, n)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
}

// Snapshot returns a copy of the recorded notifications, oldest first.
func (r *Recorder) Snapshot() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.history...)
}
