package router

import (
	"context"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/events"
	"github.com/alfredjeanlab/signalgate/internal/model"
)

// SweeperConfig configures the background expiry of stale registry entries.
type SweeperConfig struct {
	// TTL is how long a pending request or unanswered proof may wait before
	// it is expired. Zero disables the sweeper.
	TTL time.Duration

	// Interval is how often the sweeper scans. Default: 60 seconds.
	Interval time.Duration
}

// ExpireStale removes pending requests and proofs older than ttl and tells
// each affected client. It returns how many entries of each kind expired.
// Entries are consumed before clients are notified, same as operator
// decisions.
func (r *Router) ExpireStale(ctx context.Context, ttl time.Duration) (requests, proofs int) {
	if ttl <= 0 {
		return 0, 0
	}
	cutoff := r.now().Add(-ttl)

	expiredReqs := r.requests.Expire(cutoff)
	expiredProofs := r.proofs.Expire(cutoff)

	for _, req := range expiredReqs {
		r.expireNotify(ctx, req.ClientID, msgRequestExpired)
		r.publish(ctx, events.TopicRequestExpired, events.RequestExpired{Request: req})
	}
	for _, sub := range expiredProofs {
		r.expireNotify(ctx, sub.ClientID, msgProofExpired)
		r.publish(ctx, events.TopicProofExpired, events.ProofExpired{
			CorrelationKey: sub.CorrelationKey,
			ClientID:       sub.ClientID,
		})
	}

	if len(expiredReqs) > 0 || len(expiredProofs) > 0 {
		r.logger.Info("router: sweeper expired stale entries",
			"requests", len(expiredReqs),
			"proofs", len(expiredProofs),
			"ttl", ttl)
	}
	return len(expiredReqs), len(expiredProofs)
}

func (r *Router) expireNotify(ctx context.Context, to model.ClientID, text string) {
	if _, err := r.gateway.Send(ctx, to, model.Text(text)); err != nil {
		r.logger.Warn("router: expiry notice failed", "to", to, "err", err)
	}
}

// StartSweeper launches a background goroutine that periodically expires
// stale entries. It is a no-op when cfg.TTL is zero. Call StopSweeper to shut
// it down.
func (r *Router) StartSweeper(cfg SweeperConfig) {
	if cfg.TTL <= 0 {
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}

	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	if r.sweepStop != nil {
		return
	}
	r.sweepStop = make(chan struct{})
	r.sweepDone = make(chan struct{})

	go r.sweepLoop(cfg, r.sweepStop, r.sweepDone)
	r.logger.Info("router: sweeper started",
		"ttl", cfg.TTL,
		"interval", cfg.Interval)
}

// StopSweeper shuts down the sweeper goroutine and waits for it to exit.
func (r *Router) StopSweeper() {
	r.sweepMu.Lock()
	stop, done := r.sweepStop, r.sweepDone
	r.sweepStop, r.sweepDone = nil, nil
	r.sweepMu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (r *Router) sweepLoop(cfg SweeperConfig, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.ExpireStale(context.Background(), cfg.TTL)
		}
	}
}
