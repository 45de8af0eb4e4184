// Package http provides HTTP handlers and middleware for the downtime schedule API.
//
// The router exposes the following endpoints:
//   - GET /health: reports storage reachability as {"status"}.
//   - GET /downtime_schedules?search=, POST /downtime_schedules: list and create
//     schedules. The request body is a downtime.ScheduleData; responses wrap
//     downtime.Schedule values that carry pre-rendered durationText and
//     recurrenceText fields.
//   - GET, PUT, DELETE /downtime_schedules/{id}: read, replace and remove one schedule.
//   - GET /downtime_schedules/{id}/occurrences?from=&to=: concrete windows of a
//     schedule, defaulting to the next seven days.
//   - GET /downtime_schedules/active?at=: schedules whose window covers the instant.
//   - GET /downtime_schedules.ics: every schedule as an iCalendar feed.
//   - GET /metrics: Prometheus metrics, when a metrics handler is configured.
//
// Errors are returned as {"errorCode","message","errors"}. When an admin
// password is configured, non-GET requests require HTTP Basic credentials.
package http
