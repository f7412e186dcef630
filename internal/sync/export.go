package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
	"github.com/alfredjeanlab/signalgate/internal/router"
	"github.com/alfredjeanlab/signalgate/internal/settings"
)

// Source supplies the registry state to export.
type Source interface {
	Snapshot() router.Snapshot
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	RequestCount   int       `json:"request_count"`
	ProofCount     int       `json:"proof_count"`
	ConfirmedCount int       `json:"confirmed_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// proofRecord is the exported form of a pending proof. Proof content stays
// in memory and is never written out.
type proofRecord struct {
	CorrelationKey model.MessageRef `json:"correlation_key"`
	ClientID       model.ClientID   `json:"client_id"`
	SubmittedAt    time.Time        `json:"submitted_at"`
}

type settingRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// exportedSettings are the settings keys included in every export.
var exportedSettings = []string{settings.KeyPaymentText, settings.KeyPaymentMethodText}

// ExportJSONL writes the router state and configured settings as JSONL to w.
// Records are ordered header, requests, proofs, confirmed, settings; within
// each type the router's own ordering is kept. store may be nil.
func ExportJSONL(ctx context.Context, src Source, store settings.Store, w io.Writer) error {
	snap := src.Snapshot()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        "1",
		Type:           "header",
		Timestamp:      snap.TakenAt,
		RequestCount:   len(snap.Requests),
		ProofCount:     len(snap.Proofs),
		ConfirmedCount: len(snap.Confirmed),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, req := range snap.Requests {
		if err := enc.Encode(record{Type: "request", Data: req}); err != nil {
			return fmt.Errorf("encode request %s: %w", req.ClientID, err)
		}
	}
	for _, p := range snap.Proofs {
		rec := proofRecord{CorrelationKey: p.CorrelationKey, ClientID: p.ClientID, SubmittedAt: p.SubmittedAt}
		if err := enc.Encode(record{Type: "proof", Data: rec}); err != nil {
			return fmt.Errorf("encode proof %s: %w", p.CorrelationKey, err)
		}
	}
	for _, id := range snap.Confirmed {
		if err := enc.Encode(record{Type: "confirmed", Data: id}); err != nil {
			return fmt.Errorf("encode confirmed %s: %w", id, err)
		}
	}

	if store == nil {
		return nil
	}
	for _, key := range exportedSettings {
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("get setting %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := enc.Encode(record{Type: "setting", Data: settingRecord{Key: key, Value: v}}); err != nil {
			return fmt.Errorf("encode setting %s: %w", key, err)
		}
	}
	return nil
}
