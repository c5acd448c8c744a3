package events

import (
	"encoding/json"
	"time"

	dom "todoevents/internal/domain"
)

// Routing keys, one per mutation kind.
const (
	RoutingKeyCreated = "todo.created"
	RoutingKeyUpdated = "todo.updated"
	RoutingKeyDeleted = "todo.deleted"
)

// DefaultExchange is the topic exchange todo events are published on.
const DefaultExchange = "todo_events"

// Event is the JSON body of a published todo event. Timestamp is publish time.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Timestamp   string `json:"timestamp"`
}

// NewEvent snapshots t at publish time at.
func NewEvent(t dom.Todo, at time.Time) Event {
	return Event{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Timestamp:   dom.FormatTimestamp(at),
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
