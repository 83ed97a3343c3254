// Package frame provides typed, length-checked views over the 802.11 and
// Ethernet frames an access point handles, along with builders for the frames
// it transmits.
//
// 802.11 frames are complete MPDUs: a MAC header, a body and a trailing
// 4-byte frame check sequence.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// A Peer identifies the medium a buffer arrived on.
type Peer int

// Possible Peer values.
const (
	PeerUnknown Peer = iota
	PeerWlan
	PeerEthernet
)

func (p Peer) String() string {
	switch p {
	case PeerWlan:
		return "wlan"
	case PeerEthernet:
		return "ethernet"
	default:
		return fmt.Sprintf("peer(%d)", int(p))
	}
}

// A Packet is a raw frame buffer tagged with its origin.
type Packet struct {
	Peer Peer
	Data []byte
}

// Classification failures. A *ParseError wraps one of these.
var (
	ErrUnsupported = errors.New("unsupported frame type")
	ErrTooShort    = errors.New("frame too short")
	ErrBadFCS      = errors.New("frame check sequence mismatch")
)

// A ParseError reports why a buffer could not be classified.
type ParseError struct {
	// Kind names the frame shape that was being checked.
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("frame: %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(kind string, err error) error {
	return &ParseError{Kind: kind, Err: err}
}

// A Frame is one of the classified frame views: *Authentication,
// *AssociationRequest, *Deauthentication, *Disassociation, *Action,
// *NullData, *LLCData or *Ethernet.
type Frame interface {
	isFrame()
}

// Header holds the MAC header fields of an 802.11 frame.
type Header struct {
	Type   layers.Dot11Type
	Flags  layers.Dot11Flags
	Addr1  net.HardwareAddr
	Addr2  net.HardwareAddr
	Addr3  net.HardwareAddr
	SeqNum uint16
}

// PowerManagement reports whether the sender is entering power save.
func (h Header) PowerManagement() bool { return h.Flags.PowerManagement() }

// ToAP reports whether a data frame travels from a station to the DS.
func (h Header) ToAP() bool { return h.Flags.ToDS() && !h.Flags.FromDS() }

// Authentication is an Authentication management frame.
type Authentication struct {
	Header
	Algorithm   layers.Dot11Algorithm
	Transaction uint16
	Status      layers.Dot11Status
}

// AssociationRequest is an Association Request management frame.
type AssociationRequest struct {
	Header
	Capability     uint16
	ListenInterval uint16
	SSID           []byte
	// RSNE is the complete RSN element (ID and length included), or nil.
	RSNE []byte
}

// Deauthentication is a Deauthentication management frame.
type Deauthentication struct {
	Header
	Reason layers.Dot11Reason
}

// Disassociation is a Disassociation management frame.
type Disassociation struct {
	Header
	Reason layers.Dot11Reason
}

// Action is an Action management frame.
type Action struct {
	Header
	Category uint8
	Body     []byte
}

// NullData is a data frame without a body.
type NullData struct {
	Header
}

// LLCData is a data frame carrying an LLC/SNAP encapsulated payload.
type LLCData struct {
	Header
	EtherType layers.EthernetType
	Payload   []byte
}

// Ethernet is an Ethernet II frame from the local network.
type Ethernet struct {
	Dst       net.HardwareAddr
	Src       net.HardwareAddr
	EtherType layers.EthernetType
	Payload   []byte
}

func (*Authentication) isFrame()     {}
func (*AssociationRequest) isFrame() {}
func (*Deauthentication) isFrame()   {}
func (*Disassociation) isFrame()     {}
func (*Action) isFrame()             {}
func (*NullData) isFrame()           {}
func (*LLCData) isFrame()            {}
func (*Ethernet) isFrame()           {}

// Classify validates p and returns its typed view.
//
// The returned views may alias p.Data, except for hardware addresses,
// which are always copied.
func Classify(p Packet) (Frame, error) {
	switch p.Peer {
	case PeerWlan:
		return classifyWlan(p.Data)
	case PeerEthernet:
		return classifyEthernet(p.Data)
	default:
		return nil, parseErr(p.Peer.String(), ErrUnsupported)
	}
}

func classifyWlan(b []byte) (Frame, error) {
	var d layers.Dot11
	if err := d.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return nil, parseErr("802.11", fmt.Errorf("%w: %v", ErrTooShort, err))
	}
	if d.Proto != 0 {
		return nil, parseErr("802.11", ErrUnsupported)
	}
	if !d.ChecksumValid() {
		return nil, parseErr("802.11", ErrBadFCS)
	}

	h := Header{
		Type:   d.Type,
		Flags:  d.Flags,
		Addr1:  cloneAddr(d.Address1),
		Addr2:  cloneAddr(d.Address2),
		Addr3:  cloneAddr(d.Address3),
		SeqNum: d.SequenceNumber,
	}

	switch d.Type {
	case layers.Dot11TypeMgmtAuthentication:
		var a layers.Dot11MgmtAuthentication
		if err := a.DecodeFromBytes(d.Payload, gopacket.NilDecodeFeedback); err != nil {
			return nil, parseErr("authentication", ErrTooShort)
		}
		return &Authentication{
			Header:      h,
			Algorithm:   a.Algorithm,
			Transaction: a.Sequence,
			Status:      a.Status,
		}, nil
	case layers.Dot11TypeMgmtAssociationReq:
		return classifyAssocReq(h, d.Payload)
	case layers.Dot11TypeMgmtDeauthentication:
		var m layers.Dot11MgmtDeauthentication
		if err := m.DecodeFromBytes(d.Payload, gopacket.NilDecodeFeedback); err != nil {
			return nil, parseErr("deauthentication", ErrTooShort)
		}
		return &Deauthentication{Header: h, Reason: m.Reason}, nil
	case layers.Dot11TypeMgmtDisassociation:
		var m layers.Dot11MgmtDisassociation
		if err := m.DecodeFromBytes(d.Payload, gopacket.NilDecodeFeedback); err != nil {
			return nil, parseErr("disassociation", ErrTooShort)
		}
		return &Disassociation{Header: h, Reason: m.Reason}, nil
	case layers.Dot11TypeMgmtAction:
		if len(d.Payload) < 1 {
			return nil, parseErr("action", ErrTooShort)
		}
		return &Action{Header: h, Category: d.Payload[0], Body: d.Payload[1:]}, nil
	case layers.Dot11TypeDataNull, layers.Dot11TypeDataQOSNull:
		return &NullData{Header: h}, nil
	case layers.Dot11TypeData, layers.Dot11TypeDataQOSData:
		return classifyLLC(h, d.Payload)
	default:
		return nil, parseErr(d.Type.String(), ErrUnsupported)
	}
}

func classifyAssocReq(h Header, body []byte) (Frame, error) {
	var m layers.Dot11MgmtAssociationReq
	if err := m.DecodeFromBytes(body, gopacket.NilDecodeFeedback); err != nil {
		return nil, parseErr("association request", ErrTooShort)
	}
	ies, err := ParseIEs(m.Payload)
	if err != nil {
		return nil, parseErr("association request", fmt.Errorf("%w: %v", ErrTooShort, err))
	}

	req := &AssociationRequest{
		Header:         h,
		Capability:     m.CapabilityInfo,
		ListenInterval: m.ListenInterval,
	}
	if e, ok := findIE(ies, IESSID); ok {
		req.SSID = bytes.Clone(e.Data)
	}
	if e, ok := findIE(ies, IERSN); ok {
		req.RSNE = e.Bytes()
	}
	return req, nil
}

func classifyLLC(h Header, body []byte) (Frame, error) {
	pkt := gopacket.NewPacket(body, layers.LayerTypeLLC, gopacket.DecodeOptions{
		Lazy:   true,
		NoCopy: true,
	})

	llc, ok := pkt.Layer(layers.LayerTypeLLC).(*layers.LLC)
	if !ok {
		return nil, parseErr("llc", ErrTooShort)
	}
	if llc.DSAP != llcSAPSNAP || llc.SSAP != llcSAPSNAP || llc.Control != llcControlUI {
		return nil, parseErr("llc", ErrUnsupported)
	}
	snap, ok := pkt.Layer(layers.LayerTypeSNAP).(*layers.SNAP)
	if !ok {
		return nil, parseErr("snap", ErrTooShort)
	}

	return &LLCData{
		Header:    h,
		EtherType: snap.Type,
		Payload:   snap.Payload,
	}, nil
}

func classifyEthernet(b []byte) (Frame, error) {
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return nil, parseErr("ethernet", fmt.Errorf("%w: %v", ErrTooShort, err))
	}
	return &Ethernet{
		Dst:       cloneAddr(eth.DstMAC),
		Src:       cloneAddr(eth.SrcMAC),
		EtherType: eth.EthernetType,
		Payload:   eth.Payload,
	}, nil
}

func cloneAddr(a net.HardwareAddr) net.HardwareAddr {
	if a == nil {
		return nil
	}
	return append(net.HardwareAddr(nil), a...)
}
