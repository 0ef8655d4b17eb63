package parser

import (
	"net"
	"testing"

	"github.com/google/uuid"

	"github.com/alisle/zerotrust-track/internal/model"
)

func TestParseDropsNonTCPUDPProtocol(t *testing.T) {
	r := NewResolver(uuid.New())

	ev := model.ConnectionEvent{
		State: model.StateNew,
		Proto: model.ProtoICMP,
		SrcIP: net.ParseIP("10.0.0.1"),
		DstIP: net.ParseIP("10.0.0.2"),
	}

	if _, ok := r.Parse(ev); ok {
		t.Fatalf("expected ICMP event to produce no Payload")
	}
}

func TestParseDropsUnknownState(t *testing.T) {
	r := NewResolver(uuid.New())

	ev := model.ConnectionEvent{
		State:   model.StateUnknown,
		Proto:   model.ProtoTCP,
		SrcIP:   net.ParseIP("10.0.0.1"),
		DstIP:   net.ParseIP("10.0.0.2"),
		SrcPort: 1234,
		DstPort: 80,
	}

	if _, ok := r.Parse(ev); ok {
		t.Fatalf("expected Unknown-state event to produce no Payload")
	}
}
