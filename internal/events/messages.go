package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// Op is the kind of change a RecordEvent reports.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

func (o Op) IsValid() bool {
	switch o {
	case OpCreated, OpUpdated, OpDeleted:
		return true
	}
	return false
}

// RecordEvent is a lightweight change notification. It carries only the
// record identity; consumers read the current state from the store.
type RecordEvent struct {
	Kind      core.Kind `json:"kind"`
	ID        string    `json:"id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(kind core.Kind, id string, op Op) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidKind, e.Kind)
	}
	if !e.Op.IsValid() {
		return nil, fmt.Errorf("invalid event op %q", e.Op)
	}
	if e.ID == "" {
		return nil, fmt.Errorf("event without record id")
	}
	return &e, nil
}
