package model

import (
	"encoding/json"
	"testing"
)

func TestProtocolMarshalJSON(t *testing.T) {
	cases := map[Protocol]string{
		ProtoTCP:         `"TCP"`,
		ProtoUDP:         `"UDP"`,
		ProtoICMP:        `"ICMP"`,
		ProtoUnsupported: `"Unsupported"`,
	}
	for proto, want := range cases {
		got, err := json.Marshal(proto)
		if err != nil {
			t.Fatalf("marshal %v: %v", proto, err)
		}
		if string(got) != want {
			t.Errorf("Protocol(%d): got %s, want %s", proto, got, want)
		}
	}
}

func TestOpenPayloadFieldNames(t *testing.T) {
	p := OpenPayload{Protocol: ProtoTCP}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, field := range []string{
		"hash", "uuid", "agent", "timestamp", "protocol", "source",
		"destination", "source_port", "destination_port", "username", "uid",
	} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected field %q in serialized Open payload", field)
		}
	}
	if _, ok := raw["program_details"]; ok {
		t.Errorf("expected program_details to be omitted when nil")
	}
}

func TestPayloadHash(t *testing.T) {
	open := Payload{Open: &OpenPayload{Hash: 5}}
	if open.Hash() != 5 {
		t.Errorf("expected 5, got %d", open.Hash())
	}

	closePayload := Payload{Close: &ClosePayload{Hash: 9}}
	if closePayload.Hash() != 9 {
		t.Errorf("expected 9, got %d", closePayload.Hash())
	}
}
