package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

// DispatchFunc handles one inbound event. It must not panic; Listener does
// not recover.
type DispatchFunc func(ctx context.Context, ev model.InboundEvent)

// Listener consumes inbound events from the event bus and dispatches each one
// on its own goroutine.
type Listener struct {
	sub      events.Subscriber
	subject  string
	dispatch DispatchFunc
	logger   *slog.Logger
}

// NewListener creates a listener for events.SubjectInbound.
func NewListener(sub events.Subscriber, dispatch DispatchFunc, logger *slog.Logger) *Listener {
	return &Listener{
		sub:      sub,
		subject:  events.SubjectInbound,
		dispatch: dispatch,
		logger:   logger,
	}
}

// Run listens until ctx is cancelled, then waits for in-flight dispatches.
func (l *Listener) Run(ctx context.Context) error {
	ch, cancel, err := l.sub.Subscribe(l.subject)
	if err != nil {
		return fmt.Errorf("gateway: subscribe: %w", err)
	}
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	l.logger.Info("gateway: listener started", "subject", l.subject)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("gateway: listener stopping")
			return nil
		case raw, ok := <-ch:
			if !ok {
				l.logger.Info("gateway: subscription channel closed")
				return nil
			}

			var ev model.InboundEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				l.logger.Warn("gateway: bad inbound payload", "err", err)
				continue
			}

			// In-flight events finish even after ctx is cancelled.
			dctx := context.WithoutCancel(ctx)
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.dispatch(dctx, ev)
			}()
		}
	}
}
