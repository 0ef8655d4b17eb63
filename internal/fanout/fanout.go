// Package fanout serializes a correlated Payload to its single-line JSON
// form and offers it to every configured sink (§4.7).
package fanout

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/alisle/zerotrust-track/internal/model"
	"github.com/alisle/zerotrust-track/internal/sink"
)

// Fanout holds the set of enabled sinks and dispatches a serialized
// Record to each of them. Sink selection is static for the process
// lifetime — there is no dynamic add/remove.
type Fanout struct {
	sinks  []sink.Sink
	logger *zap.SugaredLogger
}

// New builds a Fanout over the given sinks, in the order they should be
// offered records (order has no behavioral meaning; each sink owns its
// own queue).
func New(sinks []sink.Sink, logger *zap.SugaredLogger) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

// Dispatch serializes p and offers it to every sink, tagging the record
// with its Open/Close kind so sinks that route the two differently (the
// tracking server) don't need to re-inspect the JSON.
func (f *Fanout) Dispatch(p model.Payload) {
	var (
		body []byte
		err  error
		kind sink.Kind
	)

	switch {
	case p.Open != nil:
		body, err = json.Marshal(p.Open)
		kind = sink.KindOpen
	case p.Close != nil:
		body, err = json.Marshal(p.Close)
		kind = sink.KindClose
	default:
		return
	}

	if err != nil {
		f.logger.Errorw("payload serialization failed", "error", err)
		return
	}

	rec := sink.Record{Kind: kind, JSON: body}
	for _, s := range f.sinks {
		s.Offer(rec)
	}
}
