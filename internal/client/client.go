// Package client talks to the downtime schedule HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/downtime-scheduler/internal/downtime"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode  int               `json:"-"`
	Code        string            `json:"errorCode"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.FieldErrors) == 0 {
		return fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field, detail := range e.FieldErrors {
		fields = append(fields, field+": "+detail)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s (%d): %s", msg, e.StatusCode, strings.Join(fields, "; "))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
	HTTP     *http.Client
}

// Client is a downtime API client. It satisfies downtime.ScheduleWriter.
type Client struct {
	base     *url.URL
	user     string
	password string
	http     *http.Client
}

var _ downtime.ScheduleWriter = (*Client)(nil)

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("client: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", raw)
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, user: opts.User, password: opts.Password, http: httpClient}, nil
}

type scheduleEnvelope struct {
	Schedule downtime.Schedule `json:"schedule"`
}

type listEnvelope struct {
	Schedules []downtime.Schedule `json:"schedules"`
}

type occurrencesEnvelope struct {
	Occurrences []downtime.Occurrence `json:"occurrences"`
}

type activeEnvelope struct {
	Active []downtime.ActiveSchedule `json:"active"`
}

// Create submits a new schedule.
func (c *Client) Create(ctx context.Context, data downtime.ScheduleData) (downtime.Schedule, error) {
	var out scheduleEnvelope
	if err := c.do(ctx, http.MethodPost, "/downtime_schedules", nil, data, &out); err != nil {
		return downtime.Schedule{}, err
	}
	return out.Schedule, nil
}

// Update replaces the schedule identified by payload.ID.
func (c *Client) Update(ctx context.Context, payload downtime.UpsertPayload) (downtime.Schedule, error) {
	var out scheduleEnvelope
	if err := c.do(ctx, http.MethodPut, schedulePath(payload.ID), nil, payload.Data, &out); err != nil {
		return downtime.Schedule{}, err
	}
	return out.Schedule, nil
}

// Get fetches one schedule.
func (c *Client) Get(ctx context.Context, id int64) (downtime.Schedule, error) {
	var out scheduleEnvelope
	if err := c.do(ctx, http.MethodGet, schedulePath(id), nil, nil, &out); err != nil {
		return downtime.Schedule{}, err
	}
	return out.Schedule, nil
}

// List returns the schedules matching search; an empty search returns all.
func (c *Client) List(ctx context.Context, search string) ([]downtime.Schedule, error) {
	query := url.Values{}
	if search = strings.TrimSpace(search); search != "" {
		query.Set("search", search)
	}
	var out listEnvelope
	if err := c.do(ctx, http.MethodGet, "/downtime_schedules", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

// Delete removes a schedule.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, schedulePath(id), nil, nil, nil)
}

// Occurrences lists the windows of a schedule between from and to.
func (c *Client) Occurrences(ctx context.Context, id int64, from, to time.Time) ([]downtime.Occurrence, error) {
	query := url.Values{}
	if !from.IsZero() {
		query.Set("from", from.Format(time.RFC3339))
	}
	if !to.IsZero() {
		query.Set("to", to.Format(time.RFC3339))
	}
	var out occurrencesEnvelope
	if err := c.do(ctx, http.MethodGet, schedulePath(id)+"/occurrences", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Occurrences, nil
}

// Active lists the schedules in effect at at, or now when at is zero.
func (c *Client) Active(ctx context.Context, at time.Time) ([]downtime.ActiveSchedule, error) {
	query := url.Values{}
	if !at.IsZero() {
		query.Set("at", at.Format(time.RFC3339))
	}
	var out activeEnvelope
	if err := c.do(ctx, http.MethodGet, "/downtime_schedules/active", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func schedulePath(id int64) string {
	return "/downtime_schedules/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if len(bytes.TrimSpace(data)) > 0 {
			if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
				apiErr.Message = strings.TrimSpace(string(data))
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
