package http

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	schedulesPath   = "/downtime_schedules"
	calendarPath    = "/downtime_schedules.ics"
	activePath      = "/downtime_schedules/active"
	occurrencesPart = "/occurrences"
	metricsPath     = "/metrics"
)

type RouterConfig struct {
	Health     *HealthHandler
	Downtime   *DowntimeHandler
	Calendar   *CalendarHandler
	// Metrics is served unauthenticated on /metrics when set.
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				methodNotAllowed(w, http.MethodGet, http.MethodHead)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle(metricsPath, cfg.Metrics)
	}

	if cfg.Calendar != nil {
		mux.HandleFunc(calendarPath, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Feed(w, r)
		})
	}

	if cfg.Downtime != nil {
		mux.HandleFunc(schedulesPath, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Downtime.List(w, r)
			case http.MethodPost:
				cfg.Downtime.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc(activePath, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Downtime.Active(w, r)
		})
		mux.HandleFunc(schedulesPath+"/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, schedulesPath+"/")
			rest, occurrences := strings.CutSuffix(rest, occurrencesPart)
			id, err := strconv.ParseInt(rest, 10, 64)
			if rest == "" || err != nil || id <= 0 {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithScheduleID(r.Context(), id))

			if occurrences {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Downtime.Occurrences(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet:
				cfg.Downtime.Get(w, r)
			case http.MethodPut:
				cfg.Downtime.Update(w, r)
			case http.MethodDelete:
				cfg.Downtime.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// routeLabel maps a request path to its route pattern.
func routeLabel(path string) string {
	switch path {
	case "/health", metricsPath, calendarPath, schedulesPath, activePath:
		return path
	}
	rest, ok := strings.CutPrefix(path, schedulesPath+"/")
	if !ok {
		return "other"
	}
	rest, occurrences := strings.CutSuffix(rest, occurrencesPart)
	if _, err := strconv.ParseInt(rest, 10, 64); err != nil {
		return "other"
	}
	if occurrences {
		return schedulesPath + "/{id}" + occurrencesPart
	}
	return schedulesPath + "/{id}"
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
