package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/downtime-scheduler/internal/downtime"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", User: "admin", Password: "s3cret"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not a url", "/relative"} {
		if _, err := New(Options{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for base URL %q", raw)
		}
	}
}

func TestClient_CreateOrUpdate(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotUser string
	var gotBody downtime.ScheduleData
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"schedule": downtime.Schedule{ID: 5, ScheduleData: gotBody}})
	})

	data := downtime.ScheduleData{Name: "upgrade"}

	schedule, err := downtime.CreateOrUpdate(context.Background(), c, downtime.UpsertPayload{ID: 5, Data: data})
	if err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/downtime_schedules/5" {
		t.Fatalf("expected PUT /downtime_schedules/5, got %s %s", gotMethod, gotPath)
	}
	if schedule.ID != 5 || gotBody.Name != "upgrade" || gotUser != "admin" {
		t.Fatalf("unexpected exchange: schedule=%+v body=%+v user=%q", schedule, gotBody, gotUser)
	}

	if _, err := downtime.CreateOrUpdate(context.Background(), c, downtime.UpsertPayload{Data: data}); err != nil {
		t.Fatalf("CreateOrUpdate returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/downtime_schedules" {
		t.Fatalf("expected POST /downtime_schedules, got %s %s", gotMethod, gotPath)
	}
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errorCode":"INVALID_INPUT","message":"downtime schedule is invalid","errors":{"name":"name is required"}}`))
	})

	_, err := c.Create(context.Background(), downtime.ScheduleData{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Code != "INVALID_INPUT" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if apiErr.FieldErrors["name"] != "name is required" {
		t.Fatalf("expected field errors, got %v", apiErr.FieldErrors)
	}
	if !strings.Contains(err.Error(), "name: name is required") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestClient_PlainTextError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	err := c.Delete(context.Background(), 3)
	if !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestClient_ListAndQueries(t *testing.T) {
	t.Parallel()

	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/occurrences"):
			_, _ = w.Write([]byte(`{"occurrences":[{"scheduleId":2,"start":"2024-01-02T02:00:00Z","end":"2024-01-02T03:00:00Z"}]}`))
		case strings.HasSuffix(r.URL.Path, "/active"):
			_, _ = w.Write([]byte(`{"at":"2024-01-02T02:30:00Z","active":[{"schedule":{"id":2,"name":"nightly"},"occurrence":{"scheduleId":2}}]}`))
		default:
			_, _ = w.Write([]byte(`{"schedules":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`))
		}
	})
	ctx := context.Background()

	schedules, err := c.List(ctx, " db ")
	if err != nil || len(schedules) != 2 {
		t.Fatalf("List returned %v, %v", schedules, err)
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	occurrences, err := c.Occurrences(ctx, 2, from, from.Add(48*time.Hour))
	if err != nil || len(occurrences) != 1 || occurrences[0].Start != "2024-01-02T02:00:00Z" {
		t.Fatalf("Occurrences returned %v, %v", occurrences, err)
	}

	active, err := c.Active(ctx, time.Time{})
	if err != nil || len(active) != 1 || active[0].Schedule.Name != "nightly" {
		t.Fatalf("Active returned %v, %v", active, err)
	}

	want := []string{
		"/downtime_schedules?search=db",
		"/downtime_schedules/2/occurrences?from=2024-01-01T00%3A00%3A00Z&to=2024-01-03T00%3A00%3A00Z",
		"/downtime_schedules/active?",
	}
	for i, q := range want {
		if queries[i] != q {
			t.Fatalf("request %d: expected %q, got %q", i, q, queries[i])
		}
	}
}
