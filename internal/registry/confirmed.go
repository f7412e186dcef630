package registry

import (
	"sort"
	"sync"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// Confirmed is the set of clients granted access to the payment payload.
// Membership is never revoked.
type Confirmed struct {
	mu  sync.RWMutex
	ids map[model.ClientID]struct{}
}

// NewConfirmed creates an empty set.
func NewConfirmed() *Confirmed {
	return &Confirmed{ids: make(map[model.ClientID]struct{})}
}

// MarkConfirmed adds id to the set. It reports whether id was newly added.
func (c *Confirmed) MarkConfirmed(id model.ClientID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ids[id]; ok {
		return false
	}
	c.ids[id] = struct{}{}
	return true
}

// IsConfirmed reports whether id is in the set.
func (c *Confirmed) IsConfirmed(id model.ClientID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[id]
	return ok
}

// All returns every confirmed id in ascending order.
func (c *Confirmed) All() []model.ClientID {
	c.mu.RLock()
	out := make([]model.ClientID, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of confirmed recipients.
func (c *Confirmed) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}
