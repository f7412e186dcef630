package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// Event topic constants
const (
	TopicRequestRegistered = "signalgate.request.registered"
	TopicRequestResolved   = "signalgate.request.resolved"
	TopicRequestDrained    = "signalgate.request.drained"
	TopicRequestExpired    = "signalgate.request.expired"

	TopicProofRecorded = "signalgate.proof.recorded"
	TopicProofResolved = "signalgate.proof.resolved"
	TopicProofExpired  = "signalgate.proof.expired"

	TopicRecipientConfirmed = "signalgate.recipient.confirmed"
	TopicSettingsUpdated    = "signalgate.settings.updated"
)

// Gateway subjects. Outbound messages go to SubjectOutboundPrefix + recipient;
// a transport adapter subscribed to SubjectOutboundAll delivers them.
const (
	SubjectInbound        = "signalgate.inbound"
	SubjectOutboundPrefix = "signalgate.outbound."
	SubjectOutboundAll    = "signalgate.outbound.>"
)

// Event types

type RequestRegistered struct {
	Request model.ClientRequest `json:"request"`
}

type RequestResolved struct {
	ClientID model.ClientID `json:"client_id"`
	Decision string         `json:"decision"`
	// Delivered is false when the decision could not be sent to the client.
	Delivered bool `json:"delivered"`
}

type RequestDrained struct {
	Clients  []model.ClientID `json:"clients"`
	Notified int              `json:"notified"`
	Failed   int              `json:"failed"`
}

type RequestExpired struct {
	Request model.ClientRequest `json:"request"`
}

type ProofRecorded struct {
	CorrelationKey model.MessageRef `json:"correlation_key"`
	ClientID       model.ClientID   `json:"client_id"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

type ProofResolved struct {
	CorrelationKey model.MessageRef `json:"correlation_key"`
	ClientID       model.ClientID   `json:"client_id"`
	Delivered      bool             `json:"delivered"`
}

type ProofExpired struct {
	CorrelationKey model.MessageRef `json:"correlation_key"`
	ClientID       model.ClientID   `json:"client_id"`
}

type RecipientConfirmed struct {
	ClientID model.ClientID `json:"client_id"`
}

type SettingsUpdated struct {
	Key        string `json:"key"`
	Recipients int    `json:"recipients"`
	Failed     int    `json:"failed"`
}

// Publisher emits audit events and outbound gateway messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives raw payloads from the bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// NoopPublisher discards everything. serve uses it when NATS is not
// configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
