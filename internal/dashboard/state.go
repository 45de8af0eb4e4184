// Package dashboard keeps the state of the downtime schedule list view as an
// explicit value that callers pass around, instead of ambient UI context.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/downtime-scheduler/internal/downtime"
)

// Sort column keys understood by Visible.
const (
	ColumnName      = "name"
	ColumnStartTime = "startTime"
	ColumnCreatedAt = "createdAt"
)

// Sort orders.
const (
	OrderAscend  = "ascend"
	OrderDescend = "descend"
)

// SortOrder is the list ordering selected by the user.
type SortOrder struct {
	ColumnKey string
	Order     string
}

// Loader fetches the full schedule list.
type Loader func(ctx context.Context) ([]downtime.Schedule, error)

// ListState is the list view state. It is safe for concurrent use.
type ListState struct {
	mu sync.Mutex

	load      Loader
	schedules []downtime.Schedule
	search    string
	sortOrder SortOrder

	deleteModalOpen bool
	deleteID        int64
}

// NewListState returns an empty list state that refetches through load.
func NewListState(load Loader) *ListState {
	return &ListState{load: load}
}

// Search returns the current search filter.
func (s *ListState) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetSearch replaces the search filter.
func (s *ListState) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
}

// ClearSearch resets the search filter.
func (s *ListState) ClearSearch() {
	s.SetSearch("")
}

// SortOrder returns the selected ordering.
func (s *ListState) SortOrder() SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortOrder
}

// SetSortOrder replaces the selected ordering.
func (s *ListState) SetSortOrder(order SortOrder) {
	s.mu.Lock()
	s.sortOrder = order
	s.mu.Unlock()
}

// ShowDeleteModal opens the delete confirmation for id.
func (s *ListState) ShowDeleteModal(id int64) {
	s.mu.Lock()
	s.deleteModalOpen = true
	s.deleteID = id
	s.mu.Unlock()
}

// HideDeleteModal closes the delete confirmation and forgets the pending id.
func (s *ListState) HideDeleteModal() {
	s.mu.Lock()
	s.deleteModalOpen = false
	s.deleteID = 0
	s.mu.Unlock()
}

// PendingDelete returns the id awaiting confirmation and whether the modal is open.
func (s *ListState) PendingDelete() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteID, s.deleteModalOpen
}

// Refetch reloads the schedule list. On error the previous list is kept.
func (s *ListState) Refetch(ctx context.Context) error {
	if s.load == nil {
		return nil
	}
	schedules, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.schedules = append([]downtime.Schedule(nil), schedules...)
	s.mu.Unlock()
	return nil
}

// Visible returns the loaded schedules matching the search filter, in the
// selected order. The search matches name and description, ignoring case.
func (s *ListState) Visible() []downtime.Schedule {
	s.mu.Lock()
	query := strings.ToLower(strings.TrimSpace(s.search))
	order := s.sortOrder
	out := make([]downtime.Schedule, 0, len(s.schedules))
	for _, schedule := range s.schedules {
		if query == "" ||
			strings.Contains(strings.ToLower(schedule.Name), query) ||
			strings.Contains(strings.ToLower(schedule.Description), query) {
			out = append(out, schedule)
		}
	}
	s.mu.Unlock()

	less := lessFunc(order.ColumnKey)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order.Order == OrderDescend {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(column string) func(a, b downtime.Schedule) bool {
	switch column {
	case ColumnName:
		return func(a, b downtime.Schedule) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case ColumnStartTime:
		return func(a, b downtime.Schedule) bool {
			return a.Schedule.StartTime < b.Schedule.StartTime
		}
	case ColumnCreatedAt:
		return func(a, b downtime.Schedule) bool {
			return a.CreatedAt < b.CreatedAt
		}
	default:
		return nil
	}
}
