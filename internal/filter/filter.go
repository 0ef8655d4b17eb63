// Package filter implements the configurable Open/Close drop predicate of
// §4.5, including the dropped-hash memory that preserves open/close
// symmetry.
package filter

import "github.com/alisle/zerotrust-track/internal/model"

// Config enumerates the drop predicates. Filtering is expressed on Opens
// only (§4.5) — Closes have no process context by the time they arrive.
type Config struct {
	NonProcessConnections bool
	DNSRequests           bool
	SelfConnections       bool
}

// Filter holds Config plus the set of hashes dropped at Open, so the
// matching Close can be recognized and dropped too.
type Filter struct {
	cfg      Config
	agentPID uint32
	dropped  map[int64]struct{}
}

// New builds a Filter for the given config. agentPID is this process's
// pid, used by the self_connections predicate.
func New(cfg Config, agentPID uint32) *Filter {
	return &Filter{
		cfg:      cfg,
		agentPID: agentPID,
		dropped:  make(map[int64]struct{}),
	}
}

const (
	portDNS  = 53
	portMDNS = 5353
)

// Apply returns the payload unchanged (ok=true) if it should pass
// downstream, or ok=false if it should be dropped.
func (f *Filter) Apply(p model.Payload) (model.Payload, bool) {
	if p.Open != nil {
		return f.applyOpen(p)
	}
	return f.applyClose(p)
}

func (f *Filter) applyOpen(p model.Payload) (model.Payload, bool) {
	o := p.Open
	drop := false

	if f.cfg.NonProcessConnections && o.Program == nil {
		drop = true
	}
	if f.cfg.DNSRequests && (o.DstPort == portDNS || o.DstPort == portMDNS) {
		drop = true
	}
	if f.cfg.SelfConnections && o.Program != nil && o.Program.PID == f.agentPID {
		drop = true
	}

	if drop {
		f.dropped[o.Hash] = struct{}{}
		return model.Payload{}, false
	}
	return p, true
}

func (f *Filter) applyClose(p model.Payload) (model.Payload, bool) {
	c := p.Close
	if _, wasDropped := f.dropped[c.Hash]; wasDropped {
		delete(f.dropped, c.Hash)
		return model.Payload{}, false
	}
	return p, true
}
