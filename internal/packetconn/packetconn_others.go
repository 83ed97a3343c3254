//go:build !linux

package packetconn

import (
	"context"
	"fmt"
	"net"
	"runtime"
)

var errUnimplemented = fmt.Errorf("packetconn: not implemented on %s", runtime.GOOS)

// A Conn is a raw link-layer socket.
type Conn struct{}

// Listen always returns an error on this platform.
func Listen(_ *net.Interface, _ uint16) (*Conn, error) { return nil, errUnimplemented }

func (*Conn) Close() error                                   { return errUnimplemented }
func (*Conn) ReadFrame(context.Context, []byte) (int, error) { return 0, errUnimplemented }
func (*Conn) WriteFrame(context.Context, []byte) error       { return errUnimplemented }
