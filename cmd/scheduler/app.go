package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/example/downtime-scheduler/internal/application"
	"github.com/example/downtime-scheduler/internal/calendar"
	"github.com/example/downtime-scheduler/internal/config"
	"github.com/example/downtime-scheduler/internal/downtime"
	httptransport "github.com/example/downtime-scheduler/internal/http"
	"github.com/example/downtime-scheduler/internal/metrics"
	"github.com/example/downtime-scheduler/internal/notify"
	"github.com/example/downtime-scheduler/internal/persistence/sqlite"
	"github.com/example/downtime-scheduler/internal/recurrence"
	"github.com/example/downtime-scheduler/internal/watcher"
)

// recentNotifications bounds the in-memory notification history.
const recentNotifications = 200

type app struct {
	handler  http.Handler
	service  *application.DowntimeService
	watcher  *watcher.Watcher
	notifier *notify.Notifier
	recent   *notify.Recorder
	metrics  *metrics.Metrics
}

func newApp(storage *sqlite.Storage, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	if now == nil {
		now = time.Now
	}
	loc := cfg.DisplayLocation
	if loc == nil {
		loc = time.Local
	}

	engine := recurrence.NewEngine(loc)
	service := application.NewDowntimeServiceWithLogger(newDowntimeRepositoryAdapter(storage), engine, now, logger)

	m := metrics.New(metrics.Config{RuntimeCollectors: true})

	recent := notify.NewRecorder(recentNotifications)
	notifier := notify.New(notify.Config{RatePerSec: cfg.NotifyRate}, notify.NewLogSink(logger), recent)
	m.TrackDropped("notifications_dropped_total", "Notifications discarded by the rate limit.", notifier.Dropped)

	w, err := watcher.New(watcher.Config{Spec: cfg.WatchSpec, Location: loc, Observer: m}, service, notifier, logger)
	if err != nil {
		return nil, err
	}

	credentials := application.AdminCredentials{User: cfg.AdminUser, PasswordHash: cfg.AdminPasswordHash}
	if !credentials.Enabled() {
		logger.Warn("admin password hash not configured; schedule changes are not authenticated")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Health:   httptransport.NewHealthHandler(storage, logger),
		Downtime: httptransport.NewDowntimeHandler(service, downtime.NewFormatter(loc), logger),
		Calendar: httptransport.NewCalendarHandler(service, calendar.NewFeed("Planned downtime", engine, now), logger),
		Metrics:  m.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Instrument(m),
			httptransport.RequestLogger(logger),
			httptransport.BasicAuth(credentials, "downtime-scheduler", logger),
		},
	})

	return &app{handler: router, service: service, watcher: w, notifier: notifier, recent: recent, metrics: m}, nil
}
