// Package registry holds the in-memory state the router owns: pending signal
// requests, outstanding proof correlations and confirmed recipients.
//
// Each registry guards its map with a single mutex and exposes only atomic
// operations; callers never see the underlying maps. Nothing here sends
// messages, so no lock is ever held across a gateway call.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// ErrAlreadyPending is returned by Register when the client already has a
// request awaiting a decision. The existing entry is left untouched.
var ErrAlreadyPending = errors.New("registry: request already pending")

// Requests tracks clients with an outstanding signal request.
type Requests struct {
	mu      sync.Mutex
	pending map[model.ClientID]model.ClientRequest
	seq     uint64
	now     func() time.Time
}

// NewRequests creates an empty request registry.
func NewRequests() *Requests {
	return &Requests{
		pending: make(map[model.ClientID]model.ClientRequest),
		now:     time.Now,
	}
}

// Register records a pending request for id. A second request from the same
// client before resolution is rejected with ErrAlreadyPending so that the
// operator prompt already sent for the first one stays valid.
func (r *Requests) Register(id model.ClientID) (model.ClientRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pending[id]; ok {
		return existing, ErrAlreadyPending
	}
	r.seq++
	req := model.ClientRequest{ClientID: id, RequestedAt: r.now().UTC(), Seq: r.seq}
	r.pending[id] = req
	return req, nil
}

// Cancel removes req only if it is still the entry pending for its client.
// It returns false when req was already resolved, drained or expired, even
// if a later registration for the same client is now pending.
func (r *Requests) Cancel(req model.ClientRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.pending[req.ClientID]
	if !ok || cur.Seq != req.Seq {
		return false
	}
	delete(r.pending, req.ClientID)
	return true
}

// ResolveOne removes and returns the pending request for id. The second call
// for the same id returns false.
func (r *Requests) ResolveOne(id model.ClientID) (model.ClientRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return req, ok
}

// ResolveAll drains every pending request, oldest first, leaving the
// registry empty.
func (r *Requests) ResolveAll() []model.ClientRequest {
	r.mu.Lock()
	drained := make([]model.ClientRequest, 0, len(r.pending))
	for _, req := range r.pending {
		drained = append(drained, req)
	}
	r.pending = make(map[model.ClientID]model.ClientRequest)
	r.mu.Unlock()

	sortRequests(drained)
	return drained
}

// Expire removes and returns every request registered before cutoff.
func (r *Requests) Expire(cutoff time.Time) []model.ClientRequest {
	r.mu.Lock()
	var expired []model.ClientRequest
	for id, req := range r.pending {
		if req.RequestedAt.Before(cutoff) {
			expired = append(expired, req)
			delete(r.pending, id)
		}
	}
	r.mu.Unlock()

	sortRequests(expired)
	return expired
}

// IsPending reports whether id has a request awaiting a decision.
func (r *Requests) IsPending(id model.ClientID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Pending returns a snapshot of all pending requests, oldest first.
func (r *Requests) Pending() []model.ClientRequest {
	r.mu.Lock()
	out := make([]model.ClientRequest, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req)
	}
	r.mu.Unlock()

	sortRequests(out)
	return out
}

// Len returns the number of pending requests.
func (r *Requests) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func sortRequests(reqs []model.ClientRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].RequestedAt.Equal(reqs[j].RequestedAt) {
			return reqs[i].ClientID < reqs[j].ClientID
		}
		return reqs[i].RequestedAt.Before(reqs[j].RequestedAt)
	})
}
