package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

// handleReply routes an operator reply to the client whose proof forward it
// answers. The lookup is keyed by the ref of the message being replied to,
// never by client id, so concurrent proofs cannot be cross-delivered.
func (r *Router) handleReply(ctx context.Context, ev model.InboundEvent) error {
	if !r.isOperator(ev.From) {
		r.reply(ctx, ev.From, msgAccessDenied)
		return fmt.Errorf("%w: reply", ErrAccessDenied)
	}
	if ev.ReplyTo == "" {
		r.reply(ctx, ev.From, msgReplyNoTarget)
		return validation("reply has no target", nil)
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		r.reply(ctx, ev.From, msgReplyEmpty)
		return validation("empty reply", nil)
	}

	sub, ok := r.proofs.Resolve(ev.ReplyTo)
	if !ok {
		r.reply(ctx, ev.From, msgReplyUnknown)
		return fmt.Errorf("%w: correlation key %s", ErrStale, ev.ReplyTo)
	}

	_, err := r.notify(ctx, sub.ClientID, model.Text(fmt.Sprintf(msgReplyForward, text)))
	r.publish(ctx, events.TopicProofResolved, events.ProofResolved{
		CorrelationKey: sub.CorrelationKey,
		ClientID:       sub.ClientID,
		Delivered:      err == nil,
	})
	if err != nil {
		r.reply(ctx, ev.From, fmt.Sprintf(msgReplyFailed, sub.ClientID))
		return err
	}
	r.reply(ctx, ev.From, fmt.Sprintf(msgReplySent, sub.ClientID))
	return nil
}
