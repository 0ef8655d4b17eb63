package sink

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alisle/zerotrust-track/internal/ifaceinfo"
)

// InterfaceReportInterval is the period of the tracking server's interface
// advertisement (§4.9).
const InterfaceReportInterval = 30 * time.Minute

// TrackingServer POSTs correlated payloads to <base>/connections/{open,close}
// and periodically reports this host's interfaces. Registration happens
// once at construction; failure there aborts sink construction (§4.9).
type TrackingServer struct {
	*boundedQueue
	client *resty.Client
	agent  uuid.UUID
	logger *zap.SugaredLogger
	done   chan struct{}
}

// NewTrackingServer registers with <base>/agents/online and returns a
// sink whose Run drains payloads and whose RunInterfaceReports runs the
// independent 30-minute interface report loop (§5: these are separate
// workers).
func NewTrackingServer(base, name string, agent uuid.UUID, capacity int, logger *zap.SugaredLogger) (*TrackingServer, error) {
	client := resty.New().SetBaseURL(base)

	ifaces, err := ifaceinfo.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces for online registration: %w", err)
	}

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"uuid": agent, "name": name, "interfaces": ifaces}).
		Post("/agents/online")
	if err != nil {
		return nil, fmt.Errorf("register with tracking server: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("tracking server rejected online registration: status %d", resp.StatusCode())
	}

	return &TrackingServer{
		boundedQueue: newBoundedQueue("tracking-server", capacity, logger),
		client:       client,
		agent:        agent,
		logger:       logger,
		done:         make(chan struct{}),
	}, nil
}

func (t *TrackingServer) Run() {
	for rec := range t.ch {
		path := "/connections/open"
		if rec.Kind == KindClose {
			path = "/connections/close"
		}

		resp, err := t.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(rec.JSON).
			Post(path)
		if err != nil {
			t.logger.Errorw("tracking server post failed", "path", path, "error", err)
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			t.logger.Errorw("tracking server post rejected", "path", path, "status", resp.StatusCode())
		}
	}
}

// RunInterfaceReports runs the repeating interface-report task until
// Close is called. It is independent of Run: either may fail transiently
// without affecting the other (§4.9).
func (t *TrackingServer) RunInterfaceReports() {
	ticker := time.NewTicker(InterfaceReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.reportInterfaces()
		case <-t.done:
			return
		}
	}
}

func (t *TrackingServer) reportInterfaces() {
	ifaces, err := ifaceinfo.Enumerate()
	if err != nil {
		t.logger.Errorw("interface enumeration failed", "error", err)
		return
	}

	path := fmt.Sprintf("/agents/%s/interfaces", t.agent)
	resp, err := t.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"interfaces": ifaces}).
		Post(path)
	if err != nil {
		t.logger.Errorw("interface report post failed", "error", err)
		return
	}
	if resp.StatusCode() != http.StatusOK {
		t.logger.Errorw("interface report rejected", "status", resp.StatusCode())
	}
}

// Close stops both the payload worker and the interface-report loop.
func (t *TrackingServer) Close() {
	t.boundedQueue.Close()
	close(t.done)
}
