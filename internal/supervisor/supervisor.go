// Package supervisor wires the pipeline together: it resolves agent
// identity, constructs the configured sinks, starts the ingester and
// every worker, and runs the main pipeline loop described in §5.
package supervisor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alisle/zerotrust-track/internal/config"
	"github.com/alisle/zerotrust-track/internal/conntrack"
	"github.com/alisle/zerotrust-track/internal/correlate"
	"github.com/alisle/zerotrust-track/internal/fanout"
	"github.com/alisle/zerotrust-track/internal/filter"
	"github.com/alisle/zerotrust-track/internal/identity"
	"github.com/alisle/zerotrust-track/internal/model"
	"github.com/alisle/zerotrust-track/internal/parser"
	"github.com/alisle/zerotrust-track/internal/queue"
	"github.com/alisle/zerotrust-track/internal/sink"
)

// Supervisor owns the resolved identity and config, and runs the pipeline
// for the lifetime of the process.
type Supervisor struct {
	cfg      config.Config
	identity model.AgentIdentity
	logger   *zap.SugaredLogger
}

// New resolves the agent identity against dataDir (creating/rewriting
// its persisted files) and returns a Supervisor ready to Run.
func New(cfg config.Config, dataDir string, logger *zap.SugaredLogger) (*Supervisor, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("data directory %q: %w", dataDir, err)
	}

	override := identity.Override{Name: cfg.Name}
	if cfg.UUID != "" {
		parsed, err := uuid.Parse(cfg.UUID)
		if err != nil {
			return nil, fmt.Errorf("config uuid: %w", err)
		}
		override.UUID = parsed
	}

	id, err := identity.Resolve(dataDir, override)
	if err != nil {
		return nil, fmt.Errorf("resolve agent identity: %w", err)
	}

	return &Supervisor{cfg: cfg, identity: id, logger: logger}, nil
}

// Run starts every sink worker and the ingester, then blocks running the
// main pipeline loop until the ingester queue closes. It returns non-nil
// only on a fatal startup condition (§7: SinkInitError, PermissionError).
func (s *Supervisor) Run() error {
	sinks, reporters, err := s.buildSinks()
	if err != nil {
		return err
	}

	ing, err := conntrack.Open()
	if err != nil {
		return fmt.Errorf("bind conntrack ingester: %w", err)
	}
	defer ing.Close()

	events := queue.New[model.ConnectionEvent]()
	go func() {
		if err := ing.Run(events); err != nil {
			s.logger.Errorw("ingester exited", "error", err)
			events.Close()
		}
	}()

	resolver := parser.NewResolver(s.identity.UUID)
	f := filter.New(filterConfig(s.cfg.Filters), uint32(os.Getpid()))
	correlator := correlate.New()
	fo := fanout.New(sinks, s.logger)

	for _, sk := range sinks {
		go sk.Run()
	}
	for _, r := range reporters {
		go r.RunInterfaceReports()
	}

	s.logger.Infow("pipeline started", "agent", s.identity.UUID, "name", s.identity.Name, "sinks", len(sinks))

	for {
		ev, ok := events.Pop()
		if !ok {
			s.logger.Warnw("ingester queue closed, shutting down")
			return nil
		}

		payload, ok := resolver.Parse(ev)
		if !ok {
			continue
		}
		payload, ok = f.Apply(payload)
		if !ok {
			continue
		}
		payload = correlator.Apply(payload)
		fo.Dispatch(payload)
	}
}

func filterConfig(cfg config.Filters) filter.Config {
	return filter.Config{
		NonProcessConnections: cfg.NonProcessConnections,
		DNSRequests:           cfg.DNSRequests,
		SelfConnections:       cfg.SelfConnections,
	}
}

// intervalReporter is the subset of TrackingServer the pipeline loop
// needs to start as an independent worker.
type intervalReporter interface {
	RunInterfaceReports()
}

func (s *Supervisor) buildSinks() ([]sink.Sink, []intervalReporter, error) {
	tag := filepath.Base(os.Args[0])

	var sinks []sink.Sink
	var reporters []intervalReporter

	for _, out := range s.cfg.Outputs.Syslog {
		sl, err := buildSyslog(out, tag, s.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start syslog sink: %w", err)
		}
		sinks = append(sinks, sl)
	}

	if s.cfg.Outputs.Elasticsearch != "" {
		es, err := sink.NewElasticsearch(s.cfg.Outputs.Elasticsearch, sink.DefaultQueueCapacity, s.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start elasticsearch sink: %w", err)
		}
		sinks = append(sinks, es)
	}

	if s.cfg.Outputs.TrackingEndpoint != "" {
		ts, err := sink.NewTrackingServer(s.cfg.Outputs.TrackingEndpoint, s.identity.Name, s.identity.UUID, sink.DefaultQueueCapacity, s.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start tracking server sink: %w", err)
		}
		sinks = append(sinks, ts)
		reporters = append(reporters, ts)
	}

	return sinks, reporters, nil
}

func buildSyslog(out config.SyslogOutput, tag string, logger *zap.SugaredLogger) (*sink.SyslogSink, error) {
	switch out.Kind {
	case config.SyslogLocalhost:
		return sink.NewSyslogLocal(tag, sink.DefaultQueueCapacity, logger)
	case config.SyslogTCP:
		return sink.NewSyslogTCP(fmt.Sprintf("%s:%d", out.Address, out.Port), tag, sink.DefaultQueueCapacity, logger)
	case config.SyslogUDP:
		return sink.NewSyslogUDP(fmt.Sprintf("%s:%d", out.Address, out.Port), tag, sink.DefaultQueueCapacity, logger)
	default:
		return nil, fmt.Errorf("unknown syslog output kind %d", out.Kind)
	}
}
