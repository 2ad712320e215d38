package events

import (
	"time"

	"mcphub/internal/api"
)

// EventType represents the severity of an event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

const (
	// ReasonServerAdded indicates a server was registered with the hub.
	ReasonServerAdded EventReason = "ServerAdded"

	// ReasonServerRemoved indicates a server was unregistered.
	ReasonServerRemoved EventReason = "ServerRemoved"

	// ReasonServerUpdated indicates a server's configuration was replaced.
	ReasonServerUpdated EventReason = "ServerUpdated"

	// ReasonStatusChanged indicates a server moved between connection states.
	ReasonStatusChanged EventReason = "StatusChanged"

	// ReasonCapabilitiesChanged indicates the catalog entries of a server changed.
	ReasonCapabilitiesChanged EventReason = "CapabilitiesChanged"

	// ReasonToolCallRetried indicates a tool call was retried after a reconnect.
	ReasonToolCallRetried EventReason = "ToolCallRetried"
)

// Event is a single state transition published by the hub.
type Event struct {
	Reason EventReason
	Server string

	// From and To are set for ReasonStatusChanged.
	From api.Status
	To   api.Status

	// Error carries the last error for failure transitions.
	Error string

	// Capability counts after the change, set for ReasonCapabilitiesChanged.
	ToolCount     int
	ResourceCount int
	PromptCount   int

	Time time.Time
}

// Type derives the event severity from its reason and payload.
func (e Event) Type() EventType {
	if e.To == api.StatusError || (e.Reason != ReasonStatusChanged && e.Error != "") {
		return EventTypeWarning
	}
	return EventTypeNormal
}

// Message renders the event with the default template engine.
func (e Event) Message() string {
	return defaultTemplates.Render(e)
}
