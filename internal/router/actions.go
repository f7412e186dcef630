package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/signalgate/internal/command"
	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

const (
	decisionAvailable   = "available"
	decisionUnavailable = "unavailable"
)

func (r *Router) handleAction(ctx context.Context, ev model.InboundEvent) error {
	if !r.isOperator(ev.From) {
		r.reply(ctx, ev.From, msgAccessDenied)
		return fmt.Errorf("%w: action %q", ErrAccessDenied, ev.Data)
	}

	action, err := command.DecodeAction(ev.Data)
	switch {
	case errors.Is(err, command.ErrInvalidClientID):
		r.reply(ctx, ev.From, msgInvalidClientID)
		return validation("invalid action client id", err)
	case err != nil:
		r.reply(ctx, ev.From, msgInvalidData)
		return validation("invalid action data", err)
	}

	if action.Global() {
		return r.resolveUnavailable(ctx, ev.From)
	}
	return r.resolveAvailable(ctx, ev.From, action.Client)
}

// resolveAvailable consumes id's pending request and delivers the payment
// payload. The entry stays consumed whether or not delivery succeeds.
func (r *Router) resolveAvailable(ctx context.Context, operator, id model.ClientID) error {
	if _, ok := r.requests.ResolveOne(id); !ok {
		r.reply(ctx, operator, msgStaleRequest)
		return fmt.Errorf("%w: request from %s", ErrStale, id)
	}

	text, ok, err := r.paymentText(ctx)
	if err != nil {
		r.reply(ctx, operator, msgSettingsReadFailed)
		return err
	}
	if !ok {
		r.publish(ctx, events.TopicRequestResolved, events.RequestResolved{ClientID: id, Decision: decisionAvailable})
		r.reply(ctx, operator, msgAvailableNoPay)
		r.reply(ctx, operator, msgSetPaymentPrompt)
		return ErrPaymentMissing
	}

	if _, err := r.notify(ctx, id, model.Text(text)); err != nil {
		r.publish(ctx, events.TopicRequestResolved, events.RequestResolved{ClientID: id, Decision: decisionAvailable})
		r.reply(ctx, operator, fmt.Sprintf(msgAvailableFailed, id))
		return err
	}

	if r.confirmed.MarkConfirmed(id) {
		r.publish(ctx, events.TopicRecipientConfirmed, events.RecipientConfirmed{ClientID: id})
	}
	r.publish(ctx, events.TopicRequestResolved, events.RequestResolved{
		ClientID:  id,
		Decision:  decisionAvailable,
		Delivered: true,
	})
	r.reply(ctx, operator, fmt.Sprintf(msgAvailableSent, id))
	return nil
}

// resolveUnavailable drains every pending request and notifies each client
// once. The operator gets a single report at the end.
func (r *Router) resolveUnavailable(ctx context.Context, operator model.ClientID) error {
	drained := r.requests.ResolveAll()

	clients := make([]model.ClientID, len(drained))
	for i, req := range drained {
		clients[i] = req.ClientID
	}
	sent, failed := r.fanOut(ctx, clients, model.Text(msgUnavailableClient))

	r.publish(ctx, events.TopicRequestDrained, events.RequestDrained{
		Clients:  clients,
		Notified: sent,
		Failed:   failed,
	})

	if failed > 0 {
		r.reply(ctx, operator, fmt.Sprintf(msgUnavailableFailed, sent, failed))
		return nil
	}
	r.reply(ctx, operator, fmt.Sprintf(msgUnavailableDone, sent))
	return nil
}
