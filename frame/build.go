package frame

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	llcSAPSNAP   = 0xaa
	llcControlUI = 0x03

	actionAddBARequest uint8 = 0

	defaultAddBABufferSize    uint16 = 64
	addBAParamAMSDU           uint16 = 1 << 0
	addBAParamImmediatePolicy uint16 = 1 << 1

	fcsLen = 4
)

// CategoryBlockAck is the action category of block ack frames.
const CategoryBlockAck uint8 = 3

// Capability information bits.
const (
	CapabilityESS           uint16 = 1 << 0
	CapabilityPrivacy       uint16 = 1 << 4
	CapabilityShortPreamble uint16 = 1 << 5
	CapabilityShortSlotTime uint16 = 1 << 10
)

// AppendFCS appends the CRC-32 frame check sequence of b to b.
func AppendFCS(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, crc32.ChecksumIEEE(b))
}

// TrimFCS returns b without its trailing frame check sequence.
func TrimFCS(b []byte) []byte {
	if len(b) < fcsLen {
		return b
	}
	return b[:len(b)-fcsLen]
}

// A Sequencer hands out 12-bit 802.11 sequence numbers.
type Sequencer struct {
	next uint16
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint16 {
	n := s.next
	s.next = (s.next + 1) & 0x0fff
	return n
}

func serialize(ls ...gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, ls...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func serializeMPDU(kind string, ls ...gopacket.SerializableLayer) ([]byte, error) {
	b, err := serialize(ls...)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", kind, err)
	}
	return AppendFCS(b), nil
}

func mgmtHeader(typ layers.Dot11Type, da, sa, bssid net.HardwareAddr, seq uint16) *layers.Dot11 {
	return &layers.Dot11{
		Type:           typ,
		Address1:       da,
		Address2:       sa,
		Address3:       bssid,
		SequenceNumber: seq,
	}
}

// AuthFrame is an Authentication management frame.
type AuthFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	Algorithm   layers.Dot11Algorithm
	Transaction uint16
	Status      layers.Dot11Status
}

// Serialize encodes the frame, FCS included.
func (f AuthFrame) Serialize() ([]byte, error) {
	return serializeMPDU("authentication",
		mgmtHeader(layers.Dot11TypeMgmtAuthentication, f.DA, f.SA, f.BSSID, f.SeqNum),
		&layers.Dot11MgmtAuthentication{
			Algorithm: f.Algorithm,
			Sequence:  f.Transaction,
			Status:    f.Status,
		},
	)
}

// AssocReqFrame is an Association Request management frame.
type AssocReqFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	Capability     uint16
	ListenInterval uint16
	IEs            []IE
}

// Serialize encodes the frame, FCS included.
func (f AssocReqFrame) Serialize() ([]byte, error) {
	var ies []byte
	for _, e := range f.IEs {
		ies = AppendIE(ies, e.ID, e.Data)
	}
	return serializeMPDU("association request",
		mgmtHeader(layers.Dot11TypeMgmtAssociationReq, f.DA, f.SA, f.BSSID, f.SeqNum),
		&layers.Dot11MgmtAssociationReq{
			CapabilityInfo: f.Capability,
			ListenInterval: f.ListenInterval,
		},
		gopacket.Payload(ies),
	)
}

// AssocRespFrame is an Association Response management frame.
type AssocRespFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	Capability uint16
	Status     layers.Dot11Status
	AID        uint16
}

// Serialize encodes the frame, FCS included.
func (f AssocRespFrame) Serialize() ([]byte, error) {
	aid := f.AID
	if aid != 0 {
		// The two most significant bits are set on the wire.
		aid |= 0xc000
	}
	return serializeMPDU("association response",
		mgmtHeader(layers.Dot11TypeMgmtAssociationResp, f.DA, f.SA, f.BSSID, f.SeqNum),
		&layers.Dot11MgmtAssociationResp{
			CapabilityInfo: f.Capability,
			Status:         f.Status,
			AID:            aid,
		},
	)
}

// DeauthFrame is a Deauthentication management frame.
type DeauthFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	Reason layers.Dot11Reason
}

// Serialize encodes the frame, FCS included.
func (f DeauthFrame) Serialize() ([]byte, error) {
	return serializeMPDU("deauthentication",
		mgmtHeader(layers.Dot11TypeMgmtDeauthentication, f.DA, f.SA, f.BSSID, f.SeqNum),
		&layers.Dot11MgmtDeauthentication{Reason: f.Reason},
	)
}

// DisassocFrame is a Disassociation management frame.
type DisassocFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	Reason layers.Dot11Reason
}

// Serialize encodes the frame, FCS included.
func (f DisassocFrame) Serialize() ([]byte, error) {
	return serializeMPDU("disassociation",
		mgmtHeader(layers.Dot11TypeMgmtDisassociation, f.DA, f.SA, f.BSSID, f.SeqNum),
		&layers.Dot11MgmtDisassociation{Reason: f.Reason},
	)
}

// AddBAReqFrame is a block ack ADDBA Request action frame for TID 0.
type AddBAReqFrame struct {
	DA, SA, BSSID net.HardwareAddr
	SeqNum        uint16

	DialogToken uint8
}

// Serialize encodes the frame, FCS included.
func (f AddBAReqFrame) Serialize() ([]byte, error) {
	params := addBAParamAMSDU | addBAParamImmediatePolicy | defaultAddBABufferSize<<6

	body := make([]byte, 9)
	body[0] = CategoryBlockAck
	body[1] = actionAddBARequest
	body[2] = f.DialogToken
	binary.LittleEndian.PutUint16(body[3:5], params)
	// Timeout and starting sequence control stay zero.

	return serializeMPDU("addba request",
		mgmtHeader(layers.Dot11TypeMgmtAction, f.DA, f.SA, f.BSSID, f.SeqNum),
		gopacket.Payload(body),
	)
}

// DataFrame is an LLC/SNAP encapsulated data frame. The caller picks the
// addresses and direction bits through Flags.
type DataFrame struct {
	Flags               layers.Dot11Flags
	Addr1, Addr2, Addr3 net.HardwareAddr
	SeqNum              uint16

	EtherType layers.EthernetType
	Payload   []byte
}

// Serialize encodes the frame, FCS included.
func (f DataFrame) Serialize() ([]byte, error) {
	return serializeMPDU("data",
		&layers.Dot11{
			Type:           layers.Dot11TypeData,
			Flags:          f.Flags,
			Address1:       f.Addr1,
			Address2:       f.Addr2,
			Address3:       f.Addr3,
			SequenceNumber: f.SeqNum,
		},
		&layers.LLC{
			DSAP:    llcSAPSNAP,
			SSAP:    llcSAPSNAP,
			Control: llcControlUI,
		},
		&layers.SNAP{
			OrganizationalCode: []byte{0x00, 0x00, 0x00},
			Type:               f.EtherType,
		},
		gopacket.Payload(f.Payload),
	)
}

// NullFrame is a data frame with no body.
type NullFrame struct {
	Flags               layers.Dot11Flags
	Addr1, Addr2, Addr3 net.HardwareAddr
	SeqNum              uint16
}

// Serialize encodes the frame, FCS included.
func (f NullFrame) Serialize() ([]byte, error) {
	return serializeMPDU("null data",
		&layers.Dot11{
			Type:           layers.Dot11TypeDataNull,
			Flags:          f.Flags,
			Address1:       f.Addr1,
			Address2:       f.Addr2,
			Address3:       f.Addr3,
			SequenceNumber: f.SeqNum,
		},
	)
}

// EthFrame is an Ethernet II frame.
type EthFrame struct {
	Dst, Src  net.HardwareAddr
	EtherType layers.EthernetType
	Payload   []byte
}

// Serialize encodes the frame. Payloads shorter than the Ethernet minimum
// are zero padded.
func (f EthFrame) Serialize() ([]byte, error) {
	b, err := serialize(
		&layers.Ethernet{
			DstMAC:       f.Dst,
			SrcMAC:       f.Src,
			EthernetType: f.EtherType,
		},
		gopacket.Payload(f.Payload),
	)
	if err != nil {
		return nil, fmt.Errorf("serialize ethernet: %w", err)
	}
	return b, nil
}
