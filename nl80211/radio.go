// Package nl80211 drives a Linux soft-AP capable radio on behalf of an
// ap.Bss: it arms beacons, transmits and receives management frames over
// generic netlink and programs stations and keys into the kernel. Data
// frames travel through an optional monitor interface.
package nl80211

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNoMonitor is returned when a data frame is sent on a Radio opened
// without a monitor Link.
var ErrNoMonitor = errors.New("nl80211: no monitor link for data frames")

// A Link is a raw link-layer socket, such as an AF_PACKET socket bound to a
// monitor interface.
type Link interface {
	ReadFrame(ctx context.Context, b []byte) (int, error)
	WriteFrame(ctx context.Context, b []byte) error
	Close() error
}

// An Option configures a Radio.
type Option func(*options)

type options struct {
	log     *zap.Logger
	monitor Link
}

// WithLogger sets the logger used by the Radio.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMonitor injects and captures data frames through l, which must carry
// radiotap framed 802.11 frames. The Radio takes ownership of l.
func WithMonitor(l Link) Option {
	return func(o *options) { o.monitor = l }
}

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
