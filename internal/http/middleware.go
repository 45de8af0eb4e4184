package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/downtime-scheduler/internal/application"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// Authenticator verifies administrator credentials.
type Authenticator interface {
	Enabled() bool
	Authenticate(user, password string) (application.Principal, error)
}

var anonymousAdmin = application.Principal{Name: "anonymous", IsAdmin: true}

// BasicAuth attaches a principal to every request. When authentication is
// disabled every caller acts as an anonymous administrator. Otherwise reads
// are allowed anonymously and other methods require valid credentials.
func BasicAuth(auth Authenticator, realm string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	if realm == "" {
		realm = "downtime-scheduler"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil || !auth.Enabled() {
				next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), anonymousAdmin)))
				return
			}

			user, password, ok := r.BasicAuth()
			if !ok {
				if isSafeMethod(r.Method) {
					next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), application.Principal{Name: "anonymous"})))
					return
				}
				challenge(w, realm)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errAuthRequired)
				return
			}

			principal, err := auth.Authenticate(user, password)
			if err != nil {
				challenge(w, realm)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, application.ErrInvalidCredentials)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func challenge(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger assigns each request an id and logs its start and completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ctx = context.WithValue(ctx, requestIDContextKey, id)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Instrument reports every request to observer, labelled by route pattern
// rather than raw path.
func Instrument(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			observer.ObserveRequest(r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
		})
	}
}
