package downtime

import "context"

// ScheduleWriter performs the two write operations the dispatcher chooses
// between. Implementations own timeouts, retries and error shaping.
type ScheduleWriter interface {
	Create(ctx context.Context, data ScheduleData) (Schedule, error)
	Update(ctx context.Context, payload UpsertPayload) (Schedule, error)
}

// CreateOrUpdate routes payload to Update when it carries a positive ID and
// to Create with the data body otherwise. The result of the chosen operation
// is returned as is.
func CreateOrUpdate(ctx context.Context, writer ScheduleWriter, payload UpsertPayload) (Schedule, error) {
	if payload.ID > 0 {
		return writer.Update(ctx, payload)
	}
	return writer.Create(ctx, payload.Data)
}
