package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/example/downtime-scheduler/internal/downtime"
)

func schedule(id int64, name, description, start string) downtime.Schedule {
	return downtime.Schedule{
		ID: id,
		ScheduleData: downtime.ScheduleData{
			Name:        name,
			Description: description,
			Schedule:    downtime.Window{StartTime: start},
		},
	}
}

func TestListState_RefetchAndFilter(t *testing.T) {
	t.Parallel()

	calls := 0
	state := NewListState(func(ctx context.Context) ([]downtime.Schedule, error) {
		calls++
		return []downtime.Schedule{
			schedule(1, "Kafka upgrade", "broker rolling restart", "2024-03-02T00:00:00Z"),
			schedule(2, "DB failover", "planned switchover", "2024-03-01T00:00:00Z"),
			schedule(3, "cdn purge", "", "2024-03-03T00:00:00Z"),
		}, nil
	})

	if err := state.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected loader to be called once, got %d", calls)
	}

	state.SetSearch("  KAFKA ")
	if got := state.Visible(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the kafka schedule, got %+v", got)
	}

	state.SetSearch("switchover")
	if got := state.Visible(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected description match, got %+v", got)
	}

	state.ClearSearch()
	if state.Search() != "" {
		t.Fatalf("expected search to be cleared")
	}
	if got := state.Visible(); len(got) != 3 {
		t.Fatalf("expected all schedules, got %d", len(got))
	}
}

func TestListState_Sorting(t *testing.T) {
	t.Parallel()

	state := NewListState(func(ctx context.Context) ([]downtime.Schedule, error) {
		return []downtime.Schedule{
			schedule(1, "beta", "", "2024-03-02T00:00:00Z"),
			schedule(2, "Alpha", "", "2024-03-03T00:00:00Z"),
			schedule(3, "gamma", "", "2024-03-01T00:00:00Z"),
		}, nil
	})
	if err := state.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch returned error: %v", err)
	}

	state.SetSortOrder(SortOrder{ColumnKey: ColumnName, Order: OrderAscend})
	if got := ids(state.Visible()); got != [3]int64{2, 1, 3} {
		t.Fatalf("unexpected name order %v", got)
	}

	state.SetSortOrder(SortOrder{ColumnKey: ColumnStartTime, Order: OrderDescend})
	if got, want := state.SortOrder(), (SortOrder{ColumnKey: ColumnStartTime, Order: OrderDescend}); got != want {
		t.Fatalf("SortOrder() = %+v, want %+v", got, want)
	}
	if got := ids(state.Visible()); got != [3]int64{2, 1, 3} {
		t.Fatalf("unexpected start time order %v", got)
	}

	state.SetSortOrder(SortOrder{})
	if got := ids(state.Visible()); got != [3]int64{1, 2, 3} {
		t.Fatalf("expected load order without sort column, got %v", got)
	}
}

func ids(list []downtime.Schedule) [3]int64 {
	var out [3]int64
	for i := range list {
		if i < len(out) {
			out[i] = list[i].ID
		}
	}
	return out
}

func TestListState_RefetchErrorKeepsList(t *testing.T) {
	t.Parallel()

	fail := false
	state := NewListState(func(ctx context.Context) ([]downtime.Schedule, error) {
		if fail {
			return nil, errors.New("unavailable")
		}
		return []downtime.Schedule{schedule(1, "a", "", "")}, nil
	})
	if err := state.Refetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fail = true
	if err := state.Refetch(context.Background()); err == nil {
		t.Fatalf("expected loader error")
	}
	if got := state.Visible(); len(got) != 1 {
		t.Fatalf("expected previous list to be kept, got %d", len(got))
	}
}

func TestListState_DeleteModal(t *testing.T) {
	t.Parallel()

	state := NewListState(nil)
	if _, open := state.PendingDelete(); open {
		t.Fatalf("modal should start closed")
	}

	state.ShowDeleteModal(9)
	if id, open := state.PendingDelete(); !open || id != 9 {
		t.Fatalf("expected pending delete 9, got %d (open=%v)", id, open)
	}

	state.HideDeleteModal()
	if id, open := state.PendingDelete(); open || id != 0 {
		t.Fatalf("expected modal closed, got %d (open=%v)", id, open)
	}

	if err := state.Refetch(context.Background()); err != nil {
		t.Fatalf("nil loader should be a no-op, got %v", err)
	}
}
