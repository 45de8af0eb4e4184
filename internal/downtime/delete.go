package downtime

import (
	"context"
	"errors"
)

// DeletedMessage is the success notification shown after a delete.
const DeletedMessage = "View Deleted Successfully"

// ErrMissingDeleteID is reported when a delete is requested without a usable identifier.
var ErrMissingDeleteID = errors.New("Unable to delete, please provide correct deleteId")

// Notifier receives user visible outcome events.
type Notifier interface {
	Success(message string)
	Error(err error)
}

// DeleteParams wires one delete request to its operation and UI callbacks.
// Nil callbacks are skipped.
type DeleteParams struct {
	Delete        func(ctx context.Context, id int64) error
	Notifications Notifier
	DeleteID      int64
	HideModal     func()
	ClearSearch   func()
	Refetch       func()
}

// HandleDelete deletes the schedule identified by params.DeleteID.
//
// Without a positive identifier the error is reported and the delete
// operation is not called. On success the modal is hidden, the search is
// cleared, a success notification is sent and the list is refetched, in that
// order. On failure only the error notification is sent.
func HandleDelete(ctx context.Context, params DeleteParams) error {
	if params.DeleteID <= 0 || params.Delete == nil {
		notifyError(params.Notifications, ErrMissingDeleteID)
		return ErrMissingDeleteID
	}

	if err := params.Delete(ctx, params.DeleteID); err != nil {
		notifyError(params.Notifications, err)
		return err
	}

	call(params.HideModal)
	call(params.ClearSearch)
	if params.Notifications != nil {
		params.Notifications.Success(DeletedMessage)
	}
	call(params.Refetch)
	return nil
}

func notifyError(n Notifier, err error) {
	if n != nil {
		n.Error(err)
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
