package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// ErrDuplicateKey is returned by Record when the correlation key is already
// mapped to another submission.
var ErrDuplicateKey = errors.New("registry: correlation key already recorded")

// Proofs maps the ref of each proof forwarded to the operator to the client
// that submitted it. Every submission gets its own entry, so concurrent
// proofs from different clients never share or overwrite a slot.
type Proofs struct {
	mu      sync.Mutex
	pending map[model.MessageRef]model.ProofSubmission
	now     func() time.Time
}

// NewProofs creates an empty correlation table.
func NewProofs() *Proofs {
	return &Proofs{
		pending: make(map[model.MessageRef]model.ProofSubmission),
		now:     time.Now,
	}
}

// Record remembers that the forward identified by key carries content from
// client id. It must be called with the ref the gateway returned for the
// forward.
func (p *Proofs) Record(key model.MessageRef, id model.ClientID, content string) (model.ProofSubmission, error) {
	if key == "" {
		return model.ProofSubmission{}, errors.New("registry: empty correlation key")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pending[key]; ok {
		return model.ProofSubmission{}, ErrDuplicateKey
	}
	sub := model.ProofSubmission{
		CorrelationKey: key,
		ClientID:       id,
		Content:        content,
		SubmittedAt:    p.now().UTC(),
	}
	p.pending[key] = sub
	return sub, nil
}

// Resolve removes and returns the submission recorded under key.
func (p *Proofs) Resolve(key model.MessageRef) (model.ProofSubmission, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.pending[key]
	if ok {
		delete(p.pending, key)
	}
	return sub, ok
}

// Expire removes and returns every submission recorded before cutoff.
func (p *Proofs) Expire(cutoff time.Time) []model.ProofSubmission {
	p.mu.Lock()
	var expired []model.ProofSubmission
	for key, sub := range p.pending {
		if sub.SubmittedAt.Before(cutoff) {
			expired = append(expired, sub)
			delete(p.pending, key)
		}
	}
	p.mu.Unlock()

	sortProofs(expired)
	return expired
}

// Pending returns a snapshot of all outstanding submissions, oldest first.
func (p *Proofs) Pending() []model.ProofSubmission {
	p.mu.Lock()
	out := make([]model.ProofSubmission, 0, len(p.pending))
	for _, sub := range p.pending {
		out = append(out, sub)
	}
	p.mu.Unlock()

	sortProofs(out)
	return out
}

// Len returns the number of outstanding submissions.
func (p *Proofs) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func sortProofs(subs []model.ProofSubmission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].CorrelationKey < subs[j].CorrelationKey
		}
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
}
