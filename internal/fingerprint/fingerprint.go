// Package fingerprint computes the stable correlation hash (§3) shared by
// an Open and its matching Close.
package fingerprint

import (
	"encoding/binary"
	"net"

	"github.com/cespare/xxhash/v2"

	"github.com/alisle/zerotrust-track/internal/model"
)

// Hash feeds (protocol name, src IPv4 bytes, src port, dst IPv4 bytes, dst
// port) into xxhash in that order and reinterprets the 64-bit digest as a
// signed integer, matching the wire Payload.Hash field.
func Hash(proto model.Protocol, srcIP net.IP, srcPort uint16, dstIP net.IP, dstPort uint16) int64 {
	var buf [2]byte
	h := xxhash.New()

	h.Write([]byte(proto.String()))

	src4 := to4(srcIP)
	h.Write(src4[:])
	binary.BigEndian.PutUint16(buf[:], srcPort)
	h.Write(buf[:])

	dst4 := to4(dstIP)
	h.Write(dst4[:])
	binary.BigEndian.PutUint16(buf[:], dstPort)
	h.Write(buf[:])

	return int64(h.Sum64())
}

func to4(ip net.IP) [4]byte {
	var out [4]byte
	if v4 := ip.To4(); v4 != nil {
		copy(out[:], v4)
	}
	return out
}
