package queue

import (
	"context"
	"encoding/json"
)

// Job handles one message type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type routed to this job.
	Type() string

	// Handle processes the raw JSON payload. A returned error schedules a
	// retry until the queue's retry limit is reached.
	Handle(ctx context.Context, payload json.RawMessage) error
}
