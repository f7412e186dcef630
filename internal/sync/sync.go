// Package sync periodically exports router state as JSONL to write-only
// destinations for operational audit. Nothing is ever read back.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/settings"
)

// Destination is the interface for a snapshot target.
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic snapshot exports to one or more destinations.
type Scheduler struct {
	source       Source
	settings     settings.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports src (and the settings in
// store, if non-nil) to the given destinations at the specified interval.
func NewScheduler(src Source, store settings.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       src,
		settings:     store,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler, writes one final snapshot so the latest state
// survives shutdown, and waits for the loop to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.exportOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.exportOnce(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			s.exportOnce(ctx)
		}
	}
}

// ExportNow writes one snapshot to every destination. It returns the number
// of destinations that failed.
func (s *Scheduler) ExportNow(ctx context.Context) int {
	return s.exportOnce(ctx)
}

func (s *Scheduler) exportOnce(ctx context.Context) int {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, s.settings, &buf); err != nil {
		s.logger.Error("snapshot export failed", "err", err)
		return len(s.destinations)
	}
	data := buf.Bytes()

	failed := 0
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("snapshot destination write failed", "destination", fmt.Sprintf("%d", i), "err", err)
		}
	}

	s.logger.Info("snapshot exported", "destinations", len(s.destinations), "failed", failed, "bytes", len(data))
	return failed
}
