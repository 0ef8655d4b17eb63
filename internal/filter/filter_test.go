package filter

import (
	"testing"

	"github.com/google/uuid"

	"github.com/alisle/zerotrust-track/internal/model"
)

func openPayload(hash int64, dstPort uint16, program *model.Program) model.Payload {
	return model.Payload{Open: &model.OpenPayload{
		Hash:    hash,
		UUID:    uuid.New(),
		DstPort: dstPort,
		Program: program,
	}}
}

func closePayload(hash int64) model.Payload {
	return model.Payload{Close: &model.ClosePayload{Hash: hash}}
}

func TestOpenCloseSymmetryUnderFilter(t *testing.T) {
	f := New(Config{NonProcessConnections: true}, 1234)

	open := openPayload(42, 80, nil)
	if _, ok := f.Apply(open); ok {
		t.Fatalf("expected Open with no Program to be dropped")
	}
	if len(f.dropped) != 1 {
		t.Fatalf("expected dropped set to record hash, got %v", f.dropped)
	}

	closeEv := closePayload(42)
	if _, ok := f.Apply(closeEv); ok {
		t.Fatalf("expected matching Close to be dropped")
	}
	if len(f.dropped) != 0 {
		t.Fatalf("expected dropped set to return to prior size, got %v", f.dropped)
	}
}

func TestCloseWithNoMatchingDropPassesThrough(t *testing.T) {
	f := New(Config{}, 1234)

	closeEv := closePayload(99)
	_, ok := f.Apply(closeEv)
	if !ok {
		t.Fatalf("expected Close with no drop-memory entry to pass through")
	}
}

func TestDNSFilter(t *testing.T) {
	f := New(Config{DNSRequests: true}, 1234)
	program := &model.Program{PID: 1}

	for _, port := range []uint16{portDNS, portMDNS} {
		open := openPayload(1, port, program)
		if _, ok := f.Apply(open); ok {
			t.Errorf("expected dst port %d to be dropped", port)
		}
	}

	open := openPayload(2, 8080, program)
	if _, ok := f.Apply(open); !ok {
		t.Errorf("expected non-DNS port to pass through")
	}
}

func TestSelfConnectionFilter(t *testing.T) {
	agentPID := uint32(4321)
	f := New(Config{SelfConnections: true}, agentPID)

	self := openPayload(1, 80, &model.Program{PID: agentPID})
	if _, ok := f.Apply(self); ok {
		t.Fatalf("expected self-connection to be dropped")
	}

	other := openPayload(2, 80, &model.Program{PID: agentPID + 1})
	if _, ok := f.Apply(other); !ok {
		t.Fatalf("expected non-self connection to pass through")
	}
}
