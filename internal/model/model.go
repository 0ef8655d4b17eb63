// Package model holds the data types shared across the ingest pipeline:
// kernel-decoded connection events, procfs socket rows, and the outbound
// Payload records that sinks serialize.
package model

import (
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
)

// State is the connection lifecycle state decoded from a conntrack message.
type State uint8

const (
	StateUnknown State = iota
	StateNew
	StateDestroy
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// Protocol is the transport protocol of a connection.
type Protocol uint8

const (
	ProtoUnsupported Protocol = iota
	ProtoTCP
	ProtoUDP
	ProtoICMP
)

// String renders the wire form used in the fingerprint and in serialized
// Payloads: "TCP" or "UDP". Other protocols never reach serialization.
func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	case ProtoICMP:
		return "ICMP"
	default:
		return "Unsupported"
	}
}

// MarshalJSON renders the protocol as its wire string ("TCP"/"UDP").
func (p Protocol) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// ConnectionEvent is a single decoded conntrack message. It is produced by
// the ingester and consumed exactly once by the event parser.
type ConnectionEvent struct {
	State State

	SrcIP net.IP
	DstIP net.IP

	Proto Protocol

	// Valid when Proto is ProtoTCP or ProtoUDP.
	SrcPort uint16
	DstPort uint16

	// Valid when Proto is ProtoICMP.
	ICMPID   uint16
	ICMPType uint8
	ICMPCode uint8
}

// SocketRow is one parsed line of /proc/net/{tcp,udp}.
type SocketRow struct {
	LocalIP    net.IP
	LocalPort  uint16
	RemoteIP   net.IP
	RemotePort uint16
	UID        uint16
	Inode      uint32
}

// Endpoint identifies one side of a socket by IPv4 address and port. It is
// the lookup key into a SocketTable.
type Endpoint struct {
	IP   [4]byte
	Port uint16
}

// NewEndpoint builds an Endpoint from an arbitrary net.IP, normalizing to
// its 4-byte form. IPv6 addresses are out of scope and produce an endpoint
// with the all-zero address and the given port, which matches only rows
// bound to 0.0.0.0 on that port.
func NewEndpoint(ip net.IP, port uint16) Endpoint {
	var e Endpoint
	if v4 := ip.To4(); v4 != nil {
		copy(e.IP[:], v4)
	}
	e.Port = port
	return e
}

// Program describes the process that owns a resolved socket.
type Program struct {
	Inode       uint32   `json:"inode"`
	PID         uint32   `json:"pid"`
	ProcessName string   `json:"process_name"`
	CommandLine []string `json:"command_line"`
}

// Payload is the tagged Open/Close record emitted after correlation. Only
// one of Open/Close is non-nil.
type Payload struct {
	Open  *OpenPayload
	Close *ClosePayload
}

// Hash returns the fingerprint shared by both variants.
func (p Payload) Hash() int64 {
	if p.Open != nil {
		return p.Open.Hash
	}
	if p.Close != nil {
		return p.Close.Hash
	}
	return 0
}

// OpenPayload is emitted when a New conntrack event is resolved.
type OpenPayload struct {
	Hash      int64     `json:"hash"`
	UUID      uuid.UUID `json:"uuid"`
	Agent     uuid.UUID `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
	Protocol  Protocol  `json:"protocol"`
	Source    net.IP    `json:"source"`
	Dest      net.IP    `json:"destination"`
	SrcPort   uint16    `json:"source_port"`
	DstPort   uint16    `json:"destination_port"`
	Username  string    `json:"username"`
	UID       uint16    `json:"uid"`
	Program   *Program  `json:"program_details,omitempty"`
}

// ClosePayload is emitted when a Destroy conntrack event is resolved. UUID
// is filled in by the correlator if a matching Open was observed; it stays
// a nil *uuid.UUID otherwise, which serializes as null.
type ClosePayload struct {
	Hash      int64      `json:"hash"`
	UUID      *uuid.UUID `json:"uuid"`
	Agent     uuid.UUID  `json:"agent"`
	Timestamp time.Time  `json:"timestamp"`
	Protocol  Protocol   `json:"protocol"`
	Source    net.IP     `json:"source"`
	Dest      net.IP     `json:"destination"`
	SrcPort   uint16     `json:"source_port"`
	DstPort   uint16     `json:"destination_port"`
}

// AgentIdentity is the (name, uuid) pair that labels this host in outbound
// records. It is persisted across restarts by internal/identity.
type AgentIdentity struct {
	Name string    `yaml:"name"`
	UUID uuid.UUID `yaml:"uuid"`
}
