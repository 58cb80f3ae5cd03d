package bus

import "time"

// Event kinds published by the stores and the broadcast controller.
const (
	ContactsLoaded           = "contacts.loaded"
	ContactsFiltered         = "contacts.filtered"
	ContactsSelectionChanged = "contacts.selection_changed"
	TemplatesChanged         = "templates.changed"
	BroadcastStateChanged    = "broadcast.state_changed"
	BroadcastMessageChanged  = "broadcast.message_changed"
	BroadcastSent            = "broadcast.sent"
	BroadcastFailed          = "broadcast.failed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}
