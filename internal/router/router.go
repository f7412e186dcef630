// Package router interprets inbound events and drives every state change on
// the pending-request registry, the proof correlation table and the
// confirmed-recipient set. It is the only code that mutates them.
//
// Every operation consumes registry state before it notifies anyone. A
// notification that fails after the entry was consumed is reported to the
// operator and never retried, so a double-pressed button cannot resolve the
// same request twice.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/gateway"
	"github.com/alfredjeanlab/signalgate/internal/model"
	"github.com/alfredjeanlab/signalgate/internal/registry"
	"github.com/alfredjeanlab/signalgate/internal/settings"
)

// Config wires a Router to its collaborators.
type Config struct {
	// Operator is the single identity allowed to decide requests and answer proofs.
	Operator  model.ClientID
	Gateway   gateway.Gateway
	Settings  settings.Store
	Publisher events.Publisher
	Logger    *slog.Logger

	// Observer, when set, receives every audit event after it is published.
	Observer func(topic string, event any)
}

// Router routes inbound events. All methods are safe for concurrent use.
type Router struct {
	operator  model.ClientID
	gateway   gateway.Gateway
	settings  settings.Store
	publisher events.Publisher
	logger    *slog.Logger
	observer  func(topic string, event any)

	requests  *registry.Requests
	proofs    *registry.Proofs
	confirmed *registry.Confirmed

	now func() time.Time

	sweepMu   sync.Mutex
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New creates a Router with empty registries.
func New(cfg Config) *Router {
	pub := cfg.Publisher
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		operator:  cfg.Operator,
		gateway:   cfg.Gateway,
		settings:  cfg.Settings,
		publisher: pub,
		logger:    logger,
		observer:  cfg.Observer,
		requests:  registry.NewRequests(),
		proofs:    registry.NewProofs(),
		confirmed: registry.NewConfirmed(),
		now:       time.Now,
	}
}

// Operator returns the configured operator identity.
func (r *Router) Operator() model.ClientID { return r.operator }

// Handle processes one inbound event. The actor always receives a response
// before Handle returns; the returned error only classifies the outcome
// (see Outcome). A panic inside a handler is recovered and reported as an
// internal error so one bad event cannot take down the event loop.
func (r *Router) Handle(ctx context.Context, ev model.InboundEvent) (err error) {
	logger := r.logger.With("trace_id", uuid.NewString(), "kind", ev.Kind, "from", ev.From)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic recovered in router",
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()))
			err = fmt.Errorf("router: internal error: %v", p)
			if ev.From != 0 {
				r.reply(ctx, ev.From, msgInternal)
			}
		}
	}()

	if verr := model.ValidateEvent(&ev); verr != nil {
		if ev.From != 0 {
			r.reply(ctx, ev.From, msgInvalidEvent)
		}
		err = &ValidationError{Reason: "invalid event", Err: verr}
	} else {
		switch ev.Kind {
		case model.EventCommand:
			err = r.handleCommand(ctx, ev)
		case model.EventAction:
			err = r.handleAction(ctx, ev)
		case model.EventReply:
			err = r.handleReply(ctx, ev)
		}
	}

	switch outcome := Outcome(err); outcome {
	case "ok":
		logger.Debug("event handled")
	case "delivery_failed", "internal":
		logger.Warn("event failed", "outcome", outcome, "err", err)
	default:
		logger.Info("event rejected", "outcome", outcome, "err", err)
	}
	return err
}

// isOperator reports whether id is the configured operator.
func (r *Router) isOperator(id model.ClientID) bool {
	return r.operator != 0 && id == r.operator
}

// reply sends a response to the actor of the current event. Failures are
// logged; the actor's own response channel has nowhere else to report to.
func (r *Router) reply(ctx context.Context, to model.ClientID, text string) {
	if _, err := r.gateway.Send(ctx, to, model.Text(text)); err != nil {
		r.logger.Warn("failed to deliver response", "to", to, "err", err)
	}
}

// notify sends a message to a client and wraps failures as DeliveryError.
func (r *Router) notify(ctx context.Context, to model.ClientID, msg model.Message) (model.MessageRef, error) {
	ref, err := r.gateway.Send(ctx, to, msg)
	if err != nil {
		return "", &DeliveryError{To: to, Err: err}
	}
	return ref, nil
}

// publish emits an audit event. Best-effort: failures are logged and do not
// affect the caller.
func (r *Router) publish(ctx context.Context, topic string, event any) {
	if err := r.publisher.Publish(ctx, topic, event); err != nil {
		r.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
	if r.observer != nil {
		r.observer(topic, event)
	}
}

// paymentText returns the configured payment payload; ok is false when it is
// unset or blank.
func (r *Router) paymentText(ctx context.Context) (string, bool, error) {
	return r.setting(ctx, settings.KeyPaymentText)
}

func (r *Router) setting(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := r.settings.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, ok && v != "", nil
}

// Snapshot is a point-in-time copy of router state for status views and
// exports.
type Snapshot struct {
	TakenAt   time.Time               `json:"taken_at"`
	Requests  []model.ClientRequest   `json:"requests"`
	Proofs    []model.ProofSubmission `json:"proofs"`
	Confirmed []model.ClientID        `json:"confirmed"`
}

// Snapshot copies the current registry contents.
func (r *Router) Snapshot() Snapshot {
	return Snapshot{
		TakenAt:   r.now().UTC(),
		Requests:  r.requests.Pending(),
		Proofs:    r.proofs.Pending(),
		Confirmed: r.confirmed.All(),
	}
}

// IsConfirmed reports whether id has been granted payment details.
func (r *Router) IsConfirmed(id model.ClientID) bool {
	return r.confirmed.IsConfirmed(id)
}

// IsPending reports whether id has a request awaiting a decision.
func (r *Router) IsPending(id model.ClientID) bool {
	return r.requests.IsPending(id)
}

func validation(reason string, err error) error {
	return &ValidationError{Reason: reason, Err: err}
}
