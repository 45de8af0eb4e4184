// Package downtime holds the planned downtime wire model together with the
// presentation helpers shared by the API server and the downtimectl client:
// duration and recurrence text, the create-or-update dispatcher and the
// delete flow that reports through a notifier.
package downtime
