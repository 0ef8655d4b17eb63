// Package correlate implements the §4.6 correlator: it attaches the UUID
// chosen at Open to the matching Close. It is single-threaded by
// construction — owned by the one pipeline worker — so no lock is needed
// (§4.6, §5).
package correlate

import (
	"github.com/google/uuid"

	"github.com/alisle/zerotrust-track/internal/model"
)

// Correlator holds the hash->uuid map described in §3.
type Correlator struct {
	byHash map[int64]uuid.UUID
}

// New returns an empty Correlator.
func New() *Correlator {
	return &Correlator{byHash: make(map[int64]uuid.UUID)}
}

// Apply inserts the Open's uuid under its hash and passes it through
// unchanged, or on a Close removes the entry and fills in the Close's UUID
// field if one was found. A Close with no matching Open (the Open
// preceded startup, or was filtered upstream) passes through with a nil
// UUID.
func (c *Correlator) Apply(p model.Payload) model.Payload {
	if p.Open != nil {
		c.byHash[p.Open.Hash] = p.Open.UUID
		return p
	}

	cp := p.Close
	if u, ok := c.byHash[cp.Hash]; ok {
		delete(c.byHash, cp.Hash)
		matched := u
		cp.UUID = &matched
	}
	return p
}
