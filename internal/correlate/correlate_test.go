package correlate

import (
	"testing"

	"github.com/google/uuid"

	"github.com/alisle/zerotrust-track/internal/model"
)

func TestCorrelationPreservesUUIDAcrossOpenClose(t *testing.T) {
	c := New()

	u := uuid.New()
	open := model.Payload{Open: &model.OpenPayload{Hash: 7, UUID: u}}
	passed := c.Apply(open)
	if passed.Open.UUID != u {
		t.Fatalf("Open should pass through unchanged")
	}

	closeEv := model.Payload{Close: &model.ClosePayload{Hash: 7}}
	result := c.Apply(closeEv)
	if result.Close.UUID == nil || *result.Close.UUID != u {
		t.Fatalf("expected Close uuid %s, got %v", u, result.Close.UUID)
	}

	if len(c.byHash) != 0 {
		t.Fatalf("expected correlation entry to be removed after Close, got %v", c.byHash)
	}
}

func TestCloseWithNoMatchingOpenHasNilUUID(t *testing.T) {
	c := New()

	closeEv := model.Payload{Close: &model.ClosePayload{Hash: 123}}
	result := c.Apply(closeEv)

	if result.Close.UUID != nil {
		t.Fatalf("expected nil uuid for unmatched Close, got %v", *result.Close.UUID)
	}
}
