package mlme

import (
	"fmt"
	"net"
)

// A MACAddr is a 6-byte IEEE 802 link-layer address. It is comparable and
// can be used as a map key.
type MACAddr [6]byte

// Broadcast is the all-ones group address.
var Broadcast = MACAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// AddrFrom converts a net.HardwareAddr. It reports false if a is not a
// 6-byte address.
func AddrFrom(a net.HardwareAddr) (MACAddr, bool) {
	var m MACAddr
	if len(a) != len(m) {
		return m, false
	}
	copy(m[:], a)
	return m, true
}

// MustAddr parses s and panics on error. It is meant for constants and tests.
func MustAddr(s string) MACAddr {
	a, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	m, ok := AddrFrom(a)
	if !ok {
		panic(fmt.Sprintf("mlme: %q is not a 48-bit address", s))
	}
	return m
}

// HardwareAddr returns a copy of m as a net.HardwareAddr.
func (m MACAddr) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), m[:]...))
}

// IsGroup reports whether m is a multicast or broadcast address.
func (m MACAddr) IsGroup() bool { return m[0]&0x01 != 0 }

func (m MACAddr) String() string { return net.HardwareAddr(m[:]).String() }

// MarshalText implements encoding.TextMarshaler.
func (m MACAddr) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MACAddr) UnmarshalText(b []byte) error {
	a, err := net.ParseMAC(string(b))
	if err != nil {
		return err
	}
	v, ok := AddrFrom(a)
	if !ok {
		return fmt.Errorf("mlme: %q is not a 48-bit address", b)
	}
	*m = v
	return nil
}
