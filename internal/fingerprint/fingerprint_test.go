package fingerprint

import (
	"net"
	"testing"

	"github.com/alisle/zerotrust-track/internal/model"
)

func TestHashStableAcrossCalls(t *testing.T) {
	src := net.ParseIP("172.16.144.102")
	dst := net.ParseIP("172.16.144.1")

	a := Hash(model.ProtoTCP, src, 22, dst, 54645)
	b := Hash(model.ProtoTCP, src, 22, dst, 54645)

	if a != b {
		t.Fatalf("hash not stable: %d != %d", a, b)
	}
}

func TestHashDependsOnEveryField(t *testing.T) {
	src := net.ParseIP("10.0.0.1")
	dst := net.ParseIP("10.0.0.2")

	base := Hash(model.ProtoTCP, src, 1000, dst, 80)

	variants := []int64{
		Hash(model.ProtoUDP, src, 1000, dst, 80),
		Hash(model.ProtoTCP, dst, 1000, dst, 80),
		Hash(model.ProtoTCP, src, 1001, dst, 80),
		Hash(model.ProtoTCP, src, 1000, src, 80),
		Hash(model.ProtoTCP, src, 1000, dst, 81),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base hash", i)
		}
	}
}
