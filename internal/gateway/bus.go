package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/idgen"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

// BusGateway publishes outbound messages on the event bus, one subject per
// recipient. A transport adapter subscribed to events.SubjectOutboundAll
// performs the actual chat delivery and must treat Ref as the message
// identity it reports back in reply events.
type BusGateway struct {
	pub    events.Publisher
	newRef func() (string, error)
	now    func() time.Time
}

// NewBusGateway creates a gateway that publishes through pub.
func NewBusGateway(pub events.Publisher) *BusGateway {
	return &BusGateway{pub: pub, newRef: idgen.MessageRef, now: time.Now}
}

// Send publishes msg for to and returns the ref assigned to it.
func (g *BusGateway) Send(ctx context.Context, to model.ClientID, msg model.Message) (model.MessageRef, error) {
	if to == 0 {
		return "", ErrNoRecipient
	}
	ref, err := g.newRef()
	if err != nil {
		return "", fmt.Errorf("gateway: %w", err)
	}
	out := Outbound{
		Ref:     model.MessageRef(ref),
		To:      to,
		Text:    msg.Text,
		Buttons: msg.Buttons,
		SentAt:  g.now().UTC(),
	}
	if err := g.pub.Publish(ctx, events.SubjectOutboundPrefix+to.String(), out); err != nil {
		return "", fmt.Errorf("gateway: publish to %s: %w", to, err)
	}
	return out.Ref, nil
}
