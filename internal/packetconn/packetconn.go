// Package packetconn provides raw link-layer sockets bound to a single
// network interface.
package packetconn

import (
	"encoding/binary"

	"github.com/josharian/native"
)

// Protocol numbers for Listen.
const (
	// ProtocolAll receives every frame on the interface.
	ProtocolAll uint16 = 0x0003
)

// htons converts a short (uint16) from host-to-network byte order.
func htons(i uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], i)
	return native.Endian.Uint16(b[:])
}
