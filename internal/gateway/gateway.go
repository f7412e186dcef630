// Package gateway connects the router to the chat transport. Outbound
// messages are handed to a Gateway, which returns the ref of the sent
// message; inbound events arrive through a Listener.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// Gateway delivers a message to a recipient and returns the ref of the sent
// message. Refs are what operator replies point back at.
type Gateway interface {
	Send(ctx context.Context, to model.ClientID, msg model.Message) (model.MessageRef, error)
}

// ErrNoRecipient is returned when Send is called with a zero ClientID.
var ErrNoRecipient = errors.New("gateway: no recipient")

// Outbound is the envelope published for each sent message.
type Outbound struct {
	Ref     model.MessageRef `json:"ref"`
	To      model.ClientID   `json:"to"`
	Text    string           `json:"text"`
	Buttons []model.Button   `json:"buttons,omitempty"`
	SentAt  time.Time        `json:"sent_at"`
}
