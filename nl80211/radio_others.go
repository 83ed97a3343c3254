//go:build !linux

package nl80211

import (
	"context"
	"fmt"
	"runtime"

	"github.com/mdlayher/wifi"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
)

// errUnimplemented is returned by all functions on platforms that
// do not have package nl80211 implemented.
var errUnimplemented = fmt.Errorf("nl80211: not implemented on %s", runtime.GOOS)

// A Radio is an ap.Device radio and an ap.Beaconer backed by nl80211.
type Radio struct{}

// Open always returns an error on this platform.
func Open(_ *wifi.Interface, _ ...Option) (*Radio, error) { return nil, errUnimplemented }

func (*Radio) Close() error                         { return errUnimplemented }
func (*Radio) SetAPMode() error                     { return errUnimplemented }
func (*Radio) Arm(ap.Config) error                  { return errUnimplemented }
func (*Radio) Disarm() error                        { return errUnimplemented }
func (*Radio) SendWlanFrame([]byte) error           { return errUnimplemented }
func (*Radio) ConfigureAssoc(ap.AssocContext) error { return errUnimplemented }
func (*Radio) ClearAssoc(mlme.MACAddr) error        { return errUnimplemented }
func (*Radio) SetKey(ap.KeyConfig) error            { return errUnimplemented }
func (*Radio) DeleteKey(ap.KeyConfig) error         { return errUnimplemented }

func (*Radio) Receive(context.Context, func(context.Context, frame.Packet) error) error {
	return errUnimplemented
}
