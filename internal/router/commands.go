package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/signalgate/internal/command"
	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/model"
	"github.com/alfredjeanlab/signalgate/internal/registry"
	"github.com/alfredjeanlab/signalgate/internal/settings"
)

func (r *Router) handleCommand(ctx context.Context, ev model.InboundEvent) error {
	cmd, err := command.Parse(ev.Command, ev.Args)

	// Authorization comes before argument checks so a non-operator learns
	// nothing about operator command syntax.
	if cmd.Kind != "" && cmd.Kind.OperatorOnly() && !r.isOperator(ev.From) {
		r.reply(ctx, ev.From, msgOwnerOnly)
		return fmt.Errorf("%w: command %s", ErrAccessDenied, cmd.Kind)
	}

	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		r.reply(ctx, ev.From, msgUnknownCommand+"\n"+r.usage(ev.From))
		return validation("unknown command", err)
	case errors.Is(err, command.ErrMissingArgument):
		r.reply(ctx, ev.From, "Usage: "+cmd.Kind.Usage())
		return validation("missing argument", err)
	case err != nil:
		r.reply(ctx, ev.From, msgInvalidEvent)
		return validation("invalid command", err)
	}

	switch cmd.Kind {
	case command.Start:
		r.reply(ctx, ev.From, msgWelcome+"\n"+r.usage(ev.From))
		return nil
	case command.RequestSignal:
		return r.requestSignal(ctx, ev.From)
	case command.PaymentInfo:
		return r.paymentInfo(ctx, ev.From)
	case command.PaymentMethod:
		return r.paymentMethod(ctx, ev.From)
	case command.SubmitProof:
		return r.submitProof(ctx, ev.From, cmd.Arg)
	case command.SetPayment:
		return r.setPayment(ctx, ev.From, cmd.Arg)
	case command.SetPaymentMethod:
		return r.setPaymentMethod(ctx, ev.From, cmd.Arg)
	case command.Pending:
		r.reply(ctx, ev.From, r.pendingSummary())
		return nil
	}
	return fmt.Errorf("router: unhandled command %s", cmd.Kind)
}

func (r *Router) usage(id model.ClientID) string {
	lines := command.ClientUsage()
	if r.isOperator(id) {
		lines = append(lines, command.OperatorUsage()...)
	}
	return strings.Join(lines, "\n")
}

// requestSignal registers a pending request and prompts the operator. If the
// prompt cannot be delivered this registration is rolled back, so no pending
// entry exists without a matching operator prompt. A registration that was
// already drained while the prompt was in flight is left alone: the drain
// answered the client and a newer request may now be pending.
func (r *Router) requestSignal(ctx context.Context, id model.ClientID) error {
	req, err := r.requests.Register(id)
	if errors.Is(err, registry.ErrAlreadyPending) {
		r.reply(ctx, id, msgRequestDuplicate)
		return validation("duplicate request", err)
	}
	if err != nil {
		return err
	}

	prompt := model.Message{
		Text: fmt.Sprintf(msgRequestPrompt, id),
		Buttons: []model.Button{
			{Label: msgButtonAvailable, Code: command.EncodeAction(command.TagAvailable, id)},
			{Label: msgButtonUnavailable, Code: command.EncodeAction(command.TagUnavailable, id)},
		},
	}
	if _, err := r.notify(ctx, r.operator, prompt); err != nil {
		if r.requests.Cancel(req) {
			r.reply(ctx, id, msgRequestUnreachable)
		}
		return err
	}

	r.publish(ctx, events.TopicRequestRegistered, events.RequestRegistered{Request: req})
	r.reply(ctx, id, msgRequestQueued)
	return nil
}

func (r *Router) paymentInfo(ctx context.Context, id model.ClientID) error {
	if !r.confirmed.IsConfirmed(id) {
		r.reply(ctx, id, msgNotConfirmed)
		return ErrNotConfirmed
	}
	text, ok, err := r.paymentText(ctx)
	if err != nil {
		r.reply(ctx, id, msgPaymentNotSet)
		return err
	}
	if !ok {
		r.reply(ctx, id, msgPaymentNotSet)
		return nil
	}
	_, err = r.notify(ctx, id, model.Text(text))
	return err
}

func (r *Router) paymentMethod(ctx context.Context, id model.ClientID) error {
	text, ok, err := r.setting(ctx, settings.KeyPaymentMethodText)
	if err != nil || !ok {
		r.reply(ctx, id, msgPaymentMethodNotSet)
		return err
	}
	_, err = r.notify(ctx, id, model.Text(text))
	return err
}

// submitProof forwards the proof to the operator and records the forward's
// ref as the correlation key for the operator's reply.
func (r *Router) submitProof(ctx context.Context, id model.ClientID, content string) error {
	ref, err := r.notify(ctx, r.operator, model.Text(fmt.Sprintf(msgProofForward, id, content)))
	if err != nil {
		r.reply(ctx, id, msgProofUnreachable)
		return err
	}

	sub, err := r.proofs.Record(ref, id, content)
	if err != nil {
		r.reply(ctx, id, msgProofUnreachable)
		return fmt.Errorf("record proof %s: %w", ref, err)
	}

	r.publish(ctx, events.TopicProofRecorded, events.ProofRecorded{
		CorrelationKey: sub.CorrelationKey,
		ClientID:       sub.ClientID,
		SubmittedAt:    sub.SubmittedAt,
	})
	r.reply(ctx, id, msgProofForwarded)
	return nil
}

// setPayment stores the new payment payload and fans it out to every
// confirmed recipient. Each delivery is independent; failures are logged and
// counted but never stop the remaining deliveries.
func (r *Router) setPayment(ctx context.Context, from model.ClientID, text string) error {
	if err := r.settings.Set(ctx, settings.KeyPaymentText, text); err != nil {
		r.reply(ctx, from, msgPaymentSaveFailed)
		return fmt.Errorf("save payment text: %w", err)
	}

	recipients := r.confirmed.All()
	sent, failed := r.fanOut(ctx, recipients, model.Text(text))

	r.publish(ctx, events.TopicSettingsUpdated, events.SettingsUpdated{
		Key:        settings.KeyPaymentText,
		Recipients: len(recipients),
		Failed:     failed,
	})
	r.reply(ctx, from, fmt.Sprintf(msgPaymentUpdated, sent, len(recipients)))
	return nil
}

func (r *Router) setPaymentMethod(ctx context.Context, from model.ClientID, text string) error {
	if err := r.settings.Set(ctx, settings.KeyPaymentMethodText, text); err != nil {
		r.reply(ctx, from, msgPaymentSaveFailed)
		return fmt.Errorf("save payment method text: %w", err)
	}
	r.publish(ctx, events.TopicSettingsUpdated, events.SettingsUpdated{Key: settings.KeyPaymentMethodText})
	r.reply(ctx, from, msgMethodUpdated)
	return nil
}

// fanOut sends msg to every recipient and returns how many sends succeeded
// and failed.
func (r *Router) fanOut(ctx context.Context, recipients []model.ClientID, msg model.Message) (sent, failed int) {
	for _, id := range recipients {
		if _, err := r.gateway.Send(ctx, id, msg); err != nil {
			failed++
			r.logger.Warn("fan-out delivery failed", "to", id, "err", err)
			continue
		}
		sent++
	}
	return sent, failed
}

func (r *Router) pendingSummary() string {
	snap := r.Snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "Pending signal requests: %d\n", len(snap.Requests))
	for _, req := range snap.Requests {
		fmt.Fprintf(&b, "  %s (since %s)\n", req.ClientID, req.RequestedAt.Format("15:04:05"))
	}
	fmt.Fprintf(&b, "Unanswered proofs: %d\n", len(snap.Proofs))
	for _, p := range snap.Proofs {
		fmt.Fprintf(&b, "  %s from %s\n", p.CorrelationKey, p.ClientID)
	}
	fmt.Fprintf(&b, "Confirmed users: %d", len(snap.Confirmed))
	return b.String()
}
