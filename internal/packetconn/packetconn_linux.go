//go:build linux

package packetconn

import (
	"context"
	"fmt"
	"net"

	"github.com/mdlayher/socket"
	"golang.org/x/sys/unix"
)

// A Conn is an AF_PACKET socket of type SOCK_RAW. Frames are read and
// written with their link-layer header.
type Conn struct {
	c       *socket.Conn
	ifindex int
	proto   uint16
}

// Listen opens a Conn on ifi that receives frames of the given EtherType.
func Listen(ifi *net.Interface, proto uint16) (*Conn, error) {
	c, err := socket.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(proto)), "packet", nil)
	if err != nil {
		return nil, fmt.Errorf("packetconn: socket: %w", err)
	}

	if err := c.Bind(&unix.SockaddrLinklayer{
		Protocol: htons(proto),
		Ifindex:  ifi.Index,
	}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("packetconn: bind %s: %w", ifi.Name, err)
	}

	return &Conn{
		c:       c,
		ifindex: ifi.Index,
		proto:   proto,
	}, nil
}

// Close closes the socket.
func (c *Conn) Close() error { return c.c.Close() }

// ReadFrame reads the next frame received by the interface into b. Frames
// the host itself transmitted are skipped.
func (c *Conn) ReadFrame(ctx context.Context, b []byte) (int, error) {
	for {
		n, sa, err := c.c.Recvfrom(ctx, b, 0)
		if err != nil {
			return 0, err
		}
		if ll, ok := sa.(*unix.SockaddrLinklayer); ok && ll.Pkttype == unix.PACKET_OUTGOING {
			continue
		}
		return n, nil
	}
}

// WriteFrame transmits b, which must begin with a link-layer header.
func (c *Conn) WriteFrame(ctx context.Context, b []byte) error {
	return c.c.Sendto(ctx, b, 0, &unix.SockaddrLinklayer{
		Protocol: htons(c.proto),
		Ifindex:  c.ifindex,
	})
}
