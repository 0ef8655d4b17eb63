// Package ifaceinfo enumerates the host's non-loopback IPv4 addresses for
// the tracking-server interface report (§4.9). It is adapted from the
// teacher's internal/platform/iface.go, which already walks
// net.Interfaces() classifying up/loopback interfaces, but repurposed to
// collect every non-loopback IPv4 address instead of picking one default
// route interface.
package ifaceinfo

import "net"

// Enumerate returns the current set of non-loopback IPv4 addresses across
// all interfaces, freshly enumerated on every call — the spec calls for
// no caching between ticks.
func Enumerate() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifaceAddrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if v4 := ip.To4(); v4 != nil {
				addrs = append(addrs, v4.String())
			}
		}
	}
	return addrs, nil
}
