//go:build linux

package nl80211

import (
	"encoding/binary"
	"errors"
	"net"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/wifi"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
	"golang.org/x/sys/unix"
)

// Station flag bits, as carried in NL80211_ATTR_STA_FLAGS2.
const (
	staFlagAuthorized    uint64 = 1 << unix.NL80211_STA_FLAG_AUTHORIZED
	staFlagAuthenticated uint64 = 1 << unix.NL80211_STA_FLAG_AUTHENTICATED
	staFlagAssociated    uint64 = 1 << unix.NL80211_STA_FLAG_ASSOCIATED
)

// A conn is a generic netlink connection speaking nl80211.
type conn struct {
	c             *genetlink.Conn
	familyID      uint16
	familyVersion uint8
	groups        []genetlink.MulticastGroup
}

// dial dials a generic netlink connection and verifies that nl80211
// is available for use.
func dial() (*conn, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}

	// Make a best effort to apply the strict options set to provide better
	// errors and validation. Older kernels may reject them.
	for _, o := range []netlink.ConnOption{
		netlink.ExtendedAcknowledge,
		netlink.GetStrictCheck,
		netlink.NoENOBUFS,
	} {
		_ = c.SetOption(o, true)
	}

	return initConn(c)
}

func initConn(c *genetlink.Conn) (*conn, error) {
	family, err := c.GetFamily(unix.NL80211_GENL_NAME)
	if err != nil {
		// Ensure the genl socket is closed on error to avoid leaking file
		// descriptors.
		_ = c.Close()
		return nil, err
	}

	return &conn{
		c:             c,
		familyID:      family.ID,
		familyVersion: family.Version,
		groups:        family.Groups,
	}, nil
}

// Close closes the generic netlink connection.
func (c *conn) Close() error { return c.c.Close() }

// get performs a request/response interaction with nl80211.
func (c *conn) get(
	cmd uint8,
	flags netlink.HeaderFlags,
	ifi *wifi.Interface,
	// May be nil; used to apply optional parameters.
	params func(ae *netlink.AttributeEncoder),
) ([]genetlink.Message, error) {
	ae := netlink.NewAttributeEncoder()
	encodeInterface(ae, ifi)
	if params != nil {
		params(ae)
	}

	return c.execute(cmd, flags, ae)
}

// execute executes the specified command with additional header flags and input
// netlink request attributes. The netlink.Request header flag is automatically
// set.
func (c *conn) execute(
	cmd uint8,
	flags netlink.HeaderFlags,
	ae *netlink.AttributeEncoder,
) ([]genetlink.Message, error) {
	b, err := ae.Encode()
	if err != nil {
		return nil, err
	}

	return c.c.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: cmd,
				Version: c.familyVersion,
			},
			Data: b,
		},
		// Always pass the genetlink family ID and request flag.
		c.familyID,
		netlink.Request|flags,
	)
}

// startAP brings up the BSS described by cfg, beaconing from bt.
func (c *conn) startAP(ifi *wifi.Interface, cfg ap.Config, bt beaconTemplate) error {
	_, err := c.get(
		unix.NL80211_CMD_START_AP,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_BEACON_HEAD, bt.Head)
			ae.Bytes(unix.NL80211_ATTR_BEACON_TAIL, bt.Tail)
			ae.Uint32(unix.NL80211_ATTR_BEACON_INTERVAL, uint32(cfg.BeaconPeriod))
			// Every DTIM period'th beacon carries a DTIM.
			ae.Uint32(unix.NL80211_ATTR_DTIM_PERIOD, uint32(cfg.DTIMPeriod))
			ae.Bytes(unix.NL80211_ATTR_SSID, []byte(cfg.SSID))
			ae.Uint32(unix.NL80211_ATTR_HIDDEN_SSID, unix.NL80211_HIDDEN_SSID_NOT_IN_USE)
			ae.Uint32(unix.NL80211_ATTR_AUTH_TYPE, unix.NL80211_AUTHTYPE_OPEN_SYSTEM)
			ae.Uint32(unix.NL80211_ATTR_WIPHY_FREQ, uint32(ChannelToFreq(int(cfg.Channel))))
			ae.Flag(unix.NL80211_ATTR_PRIVACY, cfg.Protected)

			ext := frame.AppendIE(nil, frame.IEExtendedCapabilities, extCapabilities)
			ae.Bytes(unix.NL80211_ATTR_IE, ext)
			ae.Bytes(unix.NL80211_ATTR_IE_PROBE_RESP, ext)
			ae.Bytes(unix.NL80211_ATTR_IE_ASSOC_RESP, ext)
		},
	)
	return err
}

func (c *conn) stopAP(ifi *wifi.Interface) error {
	_, err := c.get(unix.NL80211_CMD_STOP_AP, netlink.Acknowledge, ifi, nil)
	return err
}

// sendFrame transmits a management frame without FCS.
func (c *conn) sendFrame(ifi *wifi.Interface, freq uint32, b []byte) error {
	// NL80211_CMD_FRAME replies with a cookie and later reports TX status;
	// neither is tracked.
	_, err := c.get(
		unix.NL80211_CMD_FRAME,
		0,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Uint32(unix.NL80211_ATTR_WIPHY_FREQ, freq)
			ae.Flag(unix.NL80211_ATTR_DONT_WAIT_FOR_ACK, true)
			ae.Bytes(unix.NL80211_ATTR_FRAME, b)
		},
	)
	return err
}

// sendControlPort transmits an EAPOL PDU through the kernel's control port.
func (c *conn) sendControlPort(ifi *wifi.Interface, dst net.HardwareAddr, etherType uint16, pdu []byte, noEncrypt bool) error {
	_, err := c.get(
		unix.NL80211_CMD_CONTROL_PORT_FRAME,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, dst)
			ae.Uint16(unix.NL80211_ATTR_CONTROL_PORT_ETHERTYPE, etherType)
			ae.Flag(unix.NL80211_ATTR_CONTROL_PORT_NO_ENCRYPT, noEncrypt)
			ae.Bytes(unix.NL80211_ATTR_FRAME, pdu)
		},
	)
	return err
}

// newStation adds an associated station.
func (c *conn) newStation(ifi *wifi.Interface, ac ap.AssocContext, rates []byte) error {
	set := staFlagAuthenticated | staFlagAssociated
	if ac.PortOpen {
		set |= staFlagAuthorized
	}

	_, err := c.get(
		unix.NL80211_CMD_NEW_STATION,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, ac.Addr.HardwareAddr())
			ae.Bytes(unix.NL80211_ATTR_STA_SUPPORTED_RATES, rates)
			ae.Uint16(unix.NL80211_ATTR_STA_CAPABILITY, ac.Capability)
			ae.Uint16(unix.NL80211_ATTR_STA_AID, ac.AID)
			ae.Uint16(unix.NL80211_ATTR_STA_LISTEN_INTERVAL, ac.ListenInterval)
			// struct nl80211_sta_flag_update: mask in the low word, set in
			// the high word.
			ae.Uint64(unix.NL80211_ATTR_STA_FLAGS2, (set<<32)|staFlagAuthenticated|staFlagAssociated|staFlagAuthorized)
		},
	)
	return err
}

func (c *conn) setStationFlags(ifi *wifi.Interface, mac net.HardwareAddr, mask, set uint64) error {
	_, err := c.get(
		unix.NL80211_CMD_SET_STATION,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, mac)
			ae.Uint64(unix.NL80211_ATTR_STA_FLAGS2, (set<<32)|mask)
		},
	)
	return err
}

func (c *conn) delStation(ifi *wifi.Interface, mac net.HardwareAddr) error {
	_, err := c.get(
		unix.NL80211_CMD_DEL_STATION,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_MAC, mac)
		},
	)
	return err
}

func (c *conn) newKey(ifi *wifi.Interface, k ap.KeyConfig) error {
	// The key sequence counter is a 6-byte little-endian packet number.
	var seq [8]byte
	binary.LittleEndian.PutUint64(seq[:], k.RSC)

	_, err := c.get(
		unix.NL80211_CMD_NEW_KEY,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Bytes(unix.NL80211_ATTR_KEY_DATA, k.Key)
			ae.Uint8(unix.NL80211_ATTR_KEY_IDX, uint8(k.Index))
			ae.Uint32(unix.NL80211_ATTR_KEY_CIPHER, cipherSuite(k))
			ae.Bytes(unix.NL80211_ATTR_KEY_SEQ, seq[:6])
			encodeKeyTarget(ae, k)
		},
	)
	return err
}

func (c *conn) delKey(ifi *wifi.Interface, k ap.KeyConfig) error {
	_, err := c.get(
		unix.NL80211_CMD_DEL_KEY,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Uint8(unix.NL80211_ATTR_KEY_IDX, uint8(k.Index))
			encodeKeyTarget(ae, k)
		},
	)
	return err
}

// registerFrame asks the kernel to deliver management frames of frameType
// whose bodies start with match to this connection.
func (c *conn) registerFrame(ifi *wifi.Interface, frameType uint16, match []byte) error {
	_, err := c.get(
		unix.NL80211_CMD_REGISTER_FRAME,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Uint16(unix.NL80211_ATTR_FRAME_TYPE, frameType)
			ae.Bytes(unix.NL80211_ATTR_FRAME_MATCH, match)
		},
	)
	return err
}

// checkExtFeature reports whether the wiphy behind ifi supports an extended
// feature.
func (c *conn) checkExtFeature(ifi *wifi.Interface, feature uint) (bool, error) {
	msgs, err := c.get(
		unix.NL80211_CMD_GET_WIPHY,
		netlink.Dump,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Flag(unix.NL80211_ATTR_SPLIT_WIPHY_DUMP, true)
		},
	)
	if err != nil {
		return false, err
	}

	var features []byte
found:
	for i := range msgs {
		attrs, err := netlink.UnmarshalAttributes(msgs[i].Data)
		if err != nil {
			return false, err
		}
		for _, a := range attrs {
			if a.Type == unix.NL80211_ATTR_EXT_FEATURES {
				features = a.Data
				break found
			}
		}
	}

	if feature/8 >= uint(len(features)) {
		return false, nil
	}

	return features[feature/8]&(1<<(feature%8)) != 0, nil
}

func (c *conn) setInterfaceMode(ifi *wifi.Interface, mode uint32) error {
	_, err := c.get(
		unix.NL80211_CMD_SET_INTERFACE,
		netlink.Acknowledge,
		ifi,
		func(ae *netlink.AttributeEncoder) {
			ae.Uint32(unix.NL80211_ATTR_IFTYPE, mode)
		},
	)
	return err
}

// receive waits up to timeout for unsolicited messages. It returns nil
// messages and a nil error when the timeout expires.
func (c *conn) receive(timeout time.Duration) ([]genetlink.Message, error) {
	if err := c.c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	msgs, _, err := c.c.Receive()
	if err != nil {
		var oerr *netlink.OpError
		if errors.As(err, &oerr) && oerr.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return msgs, nil
}

// encodeInterface provides an encoding function for ifi's attributes. If
// ifi is nil, encodeInterface is a no-op.
func encodeInterface(ae *netlink.AttributeEncoder, ifi *wifi.Interface) {
	if ifi == nil {
		return
	}

	// Mandatory.
	ae.Uint32(unix.NL80211_ATTR_IFINDEX, uint32(ifi.Index))
}

func encodeKeyTarget(ae *netlink.AttributeEncoder, k ap.KeyConfig) {
	if k.Type == mlme.KeyTypePairwise {
		ae.Bytes(unix.NL80211_ATTR_MAC, k.Peer.HardwareAddr())
		ae.Uint32(unix.NL80211_ATTR_KEY_TYPE, unix.NL80211_KEYTYPE_PAIRWISE)
		return
	}
	ae.Uint32(unix.NL80211_ATTR_KEY_TYPE, unix.NL80211_KEYTYPE_GROUP)
}

// parseFrameEvent returns the frame carried by an NL80211_CMD_FRAME
// notification.
func parseFrameEvent(m genetlink.Message) ([]byte, bool, error) {
	if m.Header.Command != unix.NL80211_CMD_FRAME {
		return nil, false, nil
	}

	ad, err := netlink.NewAttributeDecoder(m.Data)
	if err != nil {
		return nil, false, err
	}

	var b []byte
	for ad.Next() {
		if ad.Type() == unix.NL80211_ATTR_FRAME {
			b = ad.Bytes()
		}
	}
	if err := ad.Err(); err != nil {
		return nil, false, err
	}
	return b, b != nil, nil
}
