// Package device assembles the radio, the local Ethernet link and the SME
// bridge into the collaborator set an ap.Bss transmits through.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = time.Second
	maxEthernetFrameLen = 1518
)

// A Radio transmits 802.11 frames and programs stations and keys.
type Radio interface {
	SendWlanFrame(b []byte) error
	ConfigureAssoc(ac ap.AssocContext) error
	ClearAssoc(addr mlme.MACAddr) error
	SetKey(k ap.KeyConfig) error
	DeleteKey(k ap.KeyConfig) error
}

// A FrameWriter writes link-layer frames.
type FrameWriter interface {
	WriteFrame(ctx context.Context, b []byte) error
}

// A FrameReader reads link-layer frames.
type FrameReader interface {
	ReadFrame(ctx context.Context, b []byte) (int, error)
}

// A MessageSender relays messages to the SME.
type MessageSender interface {
	Send(m mlme.Message) error
}

// A Device implements ap.Device.
type Device struct {
	Radio
	eth          FrameWriter
	sme          MessageSender
	writeTimeout time.Duration
	log          *zap.Logger
}

var _ ap.Device = (*Device)(nil)

// New creates a Device.
func New(radio Radio, eth FrameWriter, sme MessageSender, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{
		Radio:        radio,
		eth:          eth,
		sme:          sme,
		writeTimeout: defaultWriteTimeout,
		log:          log,
	}
}

// SendEthernetFrame writes b to the local network.
func (d *Device) SendEthernetFrame(b []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	if err := d.eth.WriteFrame(ctx, b); err != nil {
		return fmt.Errorf("device: write ethernet frame: %w", err)
	}
	return nil
}

// SendServiceMessage relays m to the SME.
func (d *Device) SendServiceMessage(m mlme.Message) error {
	if err := d.sme.Send(m); err != nil {
		return fmt.Errorf("device: send %s: %w", m.Method(), err)
	}
	return nil
}

// ForwardEthernet reads frames from r and passes them to deliver until ctx
// is canceled or either side fails.
func ForwardEthernet(ctx context.Context, r FrameReader, deliver func(context.Context, frame.Packet) error) error {
	buf := make([]byte, maxEthernetFrameLen)
	for {
		n, err := r.ReadFrame(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("device: read ethernet frame: %w", err)
		}

		p := frame.Packet{
			Peer: frame.PeerEthernet,
			Data: append([]byte(nil), buf[:n]...),
		}
		if err := deliver(ctx, p); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
