//go:build linux

package nl80211

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/mdlayher/wifi"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Management frames the MLME handles, as frame control words.
var registeredFrames = []uint16{
	0x0000, // association request
	0x00a0, // disassociation
	0x00b0, // authentication
	0x00c0, // deauthentication
	0x00d0, // action
}

const (
	receiveTimeout = 2 * time.Second
	maxFrameLen    = 4096
)

// A Radio is an ap.Device radio and an ap.Beaconer backed by nl80211.
//
// Receive may run concurrently with the other methods, which must be
// called from a single goroutine.
type Radio struct {
	// cmd issues requests. ev owns the frame registrations and is read
	// only by Receive.
	cmd, ev *conn
	ifi     *wifi.Interface
	monitor Link
	log     *zap.Logger

	controlPort bool
	cfg         *ap.Config
}

var _ ap.Beaconer = (*Radio)(nil)

// Open opens a Radio on the AP interface ifi. The monitor link, if any, is
// closed when Open fails.
func Open(ifi *wifi.Interface, opts ...Option) (_ *Radio, err error) {
	o := newOptions(opts)
	defer func() {
		if err != nil && o.monitor != nil {
			_ = o.monitor.Close()
		}
	}()

	cmd, err := dial()
	if err != nil {
		return nil, fmt.Errorf("nl80211: dial: %w", err)
	}
	ev, err := dial()
	if err != nil {
		_ = cmd.Close()
		return nil, fmt.Errorf("nl80211: dial: %w", err)
	}

	r := &Radio{
		cmd:     cmd,
		ev:      ev,
		ifi:     ifi,
		monitor: o.monitor,
		log:     o.log,
	}

	r.controlPort, err = cmd.checkExtFeature(ifi, unix.NL80211_EXT_FEATURE_CONTROL_PORT_OVER_NL80211)
	if err != nil {
		r.log.Warn("failed to query control port support", zap.Error(err))
	}
	r.log.Info("opened radio",
		zap.String("interface", ifi.Name),
		zap.Stringer("addr", ifi.HardwareAddr),
		zap.Bool("control_port", r.controlPort),
		zap.Bool("monitor", r.monitor != nil))

	for _, ft := range registeredFrames {
		if err := ev.registerFrame(ifi, ft, nil); err != nil {
			_ = multierr.Combine(cmd.Close(), ev.Close())
			return nil, fmt.Errorf("nl80211: register frame type %#04x: %w", ft, err)
		}
	}

	return r, nil
}

// Close releases the Radio's sockets.
func (r *Radio) Close() error {
	err := multierr.Combine(r.cmd.Close(), r.ev.Close())
	if r.monitor != nil {
		err = multierr.Append(err, r.monitor.Close())
	}
	return err
}

// SetAPMode switches the interface to AP mode.
func (r *Radio) SetAPMode() error {
	if err := r.cmd.setInterfaceMode(r.ifi, unix.NL80211_IFTYPE_AP); err != nil {
		return fmt.Errorf("nl80211: set AP mode: %w", err)
	}
	return nil
}

// Arm starts beaconing for cfg.
func (r *Radio) Arm(cfg ap.Config) error {
	bt, err := newBeaconTemplate(cfg)
	if err != nil {
		return err
	}
	if err := r.cmd.startAP(r.ifi, cfg, bt); err != nil {
		return fmt.Errorf("nl80211: start AP: %w", err)
	}

	r.cfg = &cfg
	r.log.Info("beacons armed",
		zap.String("ssid", cfg.SSID),
		zap.Uint8("channel", cfg.Channel),
		zap.Bool("protected", cfg.Protected))
	return nil
}

// Disarm stops beaconing.
func (r *Radio) Disarm() error {
	r.cfg = nil
	if err := r.cmd.stopAP(r.ifi); err != nil {
		return fmt.Errorf("nl80211: stop AP: %w", err)
	}
	r.log.Info("beacons disarmed")
	return nil
}

// SendWlanFrame transmits a complete 802.11 frame, FCS included.
// Management frames go out over nl80211. EAPOL frames use the control port
// when the radio supports it. Other data frames are injected through the
// monitor link.
func (r *Radio) SendWlanFrame(b []byte) error {
	var d layers.Dot11
	if err := d.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return fmt.Errorf("nl80211: decode frame: %w", err)
	}

	switch d.Type.MainType() {
	case layers.Dot11TypeMgmt:
		return r.cmd.sendFrame(r.ifi, r.freq(), frame.TrimFCS(b))
	case layers.Dot11TypeData:
		if r.controlPort {
			f, err := frame.Classify(frame.Packet{Peer: frame.PeerWlan, Data: b})
			if data, ok := f.(*frame.LLCData); err == nil && ok && data.EtherType == layers.EthernetTypeEAPOL {
				return r.cmd.sendControlPort(r.ifi, data.Addr1, uint16(data.EtherType), data.Payload, !data.Flags.WEP())
			}
		}
		return r.inject(b)
	default:
		return fmt.Errorf("nl80211: unsupported frame type %v", d.Type)
	}
}

func (r *Radio) inject(mpdu []byte) error {
	if r.monitor == nil {
		return ErrNoMonitor
	}
	b, err := encodeRadiotap(mpdu)
	if err != nil {
		return err
	}
	return r.monitor.WriteFrame(context.Background(), b)
}

// ConfigureAssoc adds an associated station to the kernel.
func (r *Radio) ConfigureAssoc(ac ap.AssocContext) error {
	rates := supportedRates2GHz
	if r.cfg != nil && is5GHz(r.cfg.Channel) {
		rates = supportedRates5GHz
	}
	if err := r.cmd.newStation(r.ifi, ac, rates); err != nil {
		return fmt.Errorf("nl80211: new station %s: %w", ac.Addr, err)
	}
	return nil
}

// ClearAssoc removes a station from the kernel.
func (r *Radio) ClearAssoc(addr mlme.MACAddr) error {
	if err := r.cmd.delStation(r.ifi, addr.HardwareAddr()); err != nil {
		return fmt.Errorf("nl80211: delete station %s: %w", addr, err)
	}
	return nil
}

// SetKey installs k. A pairwise key also authorizes its station.
func (r *Radio) SetKey(k ap.KeyConfig) error {
	if err := r.cmd.newKey(r.ifi, k); err != nil {
		return fmt.Errorf("nl80211: new key %d: %w", k.Index, err)
	}
	if k.Type != mlme.KeyTypePairwise {
		return nil
	}
	if err := r.cmd.setStationFlags(r.ifi, k.Peer.HardwareAddr(), staFlagAuthorized, staFlagAuthorized); err != nil {
		return fmt.Errorf("nl80211: authorize station %s: %w", k.Peer, err)
	}
	return nil
}

// DeleteKey removes k.
func (r *Radio) DeleteKey(k ap.KeyConfig) error {
	if err := r.cmd.delKey(r.ifi, k); err != nil {
		return fmt.Errorf("nl80211: delete key %d: %w", k.Index, err)
	}
	return nil
}

// Receive passes received frames to deliver until ctx is canceled or
// deliver fails. Management frames arrive through the registrations made
// by Open; data frames are captured from the monitor link.
func (r *Radio) Receive(ctx context.Context, deliver func(context.Context, frame.Packet) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for ctx.Err() == nil {
			msgs, err := r.ev.receive(receiveTimeout)
			if err != nil {
				return fmt.Errorf("nl80211: receive: %w", err)
			}
			for _, m := range msgs {
				b, ok, err := parseFrameEvent(m)
				if err != nil {
					r.log.Debug("dropping malformed frame event", zap.Error(err))
					continue
				}
				if !ok {
					continue
				}
				p := frame.Packet{Peer: frame.PeerWlan, Data: frame.AppendFCS(b)}
				if err := deliver(ctx, p); err != nil {
					return err
				}
			}
		}
		return ctx.Err()
	})

	if r.monitor != nil {
		g.Go(func() error {
			buf := make([]byte, maxFrameLen)
			for {
				n, err := r.monitor.ReadFrame(ctx, buf)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return fmt.Errorf("nl80211: read monitor: %w", err)
				}

				mpdu, err := decodeRadiotap(buf[:n])
				if err != nil {
					r.log.Debug("dropping captured frame", zap.Error(err))
					continue
				}
				// Management frames arrive over nl80211.
				if !isDataFrame(mpdu) {
					continue
				}
				p := frame.Packet{Peer: frame.PeerWlan, Data: append([]byte(nil), mpdu...)}
				if err := deliver(ctx, p); err != nil {
					return err
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Radio) freq() uint32 {
	if r.cfg != nil {
		return uint32(ChannelToFreq(int(r.cfg.Channel)))
	}
	return uint32(r.ifi.Frequency)
}
