package activity

import (
	"strings"
	"time"
)

const (
	// VerbActionDispatched marks an action that committed successfully.
	VerbActionDispatched = "store.action.dispatched"
	// VerbActionFailed marks an action whose operation returned an error.
	VerbActionFailed = "store.action.failed"
	// ObjectTypeSlice is the object type of every action event; the object
	// id is the slice name.
	ObjectTypeSlice = "store.slice"
)

// ActionEventInput describes one traced action call.
type ActionEventInput struct {
	ActorID      string
	UserID       string
	TenantID     string
	Channel      string
	Slice        string
	Key          string
	Action       string
	InvocationID string
	Args         []any
	Before       any
	After        any
	Err          error
	Duration     time.Duration
	OccurredAt   time.Time
}

// BuildActionEvent constructs the dispatched or failed event for input,
// depending on whether input.Err is set.
func BuildActionEvent(input ActionEventInput) Event {
	verb := VerbActionDispatched
	if input.Err != nil {
		verb = VerbActionFailed
	}

	metadata := map[string]any{
		"action":      input.Action,
		"duration_ms": input.Duration.Milliseconds(),
	}
	if input.Key != "" {
		metadata["key"] = input.Key
	}
	if input.InvocationID != "" {
		metadata["invocation_id"] = input.InvocationID
	}
	if len(input.Args) > 0 {
		metadata["args"] = append([]any(nil), input.Args...)
	}
	if input.Before != nil {
		metadata["before"] = input.Before
	}
	if input.After != nil {
		metadata["after"] = input.After
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.Slice)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Key)
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeSlice,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
