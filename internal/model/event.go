package model

import "strings"

// EventKind discriminates inbound events.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventAction  EventKind = "action"
	EventReply   EventKind = "reply"
)

// IsValid reports whether k is a known event kind.
func (k EventKind) IsValid() bool {
	switch k {
	case EventCommand, EventAction, EventReply:
		return true
	}
	return false
}

// InboundEvent is a single event delivered by the messaging gateway.
//
// Command events carry Command and optional Args; action events carry the
// button code in Data; reply events carry the replied-to message in ReplyTo
// and the reply body in Text.
type InboundEvent struct {
	Kind    EventKind  `json:"kind"`
	From    ClientID   `json:"from"`
	Command string     `json:"command,omitempty"`
	Args    string     `json:"args,omitempty"`
	Data    string     `json:"data,omitempty"`
	ReplyTo MessageRef `json:"reply_to,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// ValidateEvent checks the envelope of an inbound event. It does not look at
// command names or action codes; those are decoded by the command package.
func ValidateEvent(ev *InboundEvent) error {
	var ve ValidationError

	if !ev.Kind.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{Field: "kind", Message: "must be command, action or reply"})
	}
	if ev.From == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "from", Message: "is required"})
	}
	switch ev.Kind {
	case EventCommand:
		if strings.TrimSpace(ev.Command) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "command", Message: "is required"})
		}
	case EventAction:
		if strings.TrimSpace(ev.Data) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "data", Message: "is required"})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
