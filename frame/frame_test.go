package frame

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	bssid  = net.HardwareAddr{0xb7, 0xcd, 0x3f, 0xb0, 0x93, 0x01}
	client = net.HardwareAddr{0x94, 0x3c, 0x49, 0x49, 0x9f, 0x2d}
)

type serializer interface {
	Serialize() ([]byte, error)
}

func mustSerialize(t *testing.T, s serializer) []byte {
	t.Helper()

	b, err := s.Serialize()
	if err != nil {
		t.Fatalf("failed to serialize %T: %v", s, err)
	}
	return b
}

func TestClassify(t *testing.T) {
	rsne := []byte{0x30, 0x02, 0x01, 0x00}

	tests := []struct {
		name string
		p    Packet
		want Frame
	}{
		{
			name: "authentication",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, AuthFrame{
				DA: bssid, SA: client, BSSID: bssid, SeqNum: 7,
				Algorithm:   layers.Dot11AlgorithmOpen,
				Transaction: 1,
			})},
			want: &Authentication{
				Header: Header{
					Type:   layers.Dot11TypeMgmtAuthentication,
					Addr1:  bssid,
					Addr2:  client,
					Addr3:  bssid,
					SeqNum: 7,
				},
				Algorithm:   layers.Dot11AlgorithmOpen,
				Transaction: 1,
			},
		},
		{
			name: "association request",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, AssocReqFrame{
				DA: bssid, SA: client, BSSID: bssid,
				Capability:     CapabilityESS,
				ListenInterval: 10,
				IEs: []IE{
					{ID: IESSID, Data: []byte("fuchsia-fake-ap")},
					{ID: IESupportedRates, Data: []byte{0x82, 0x84}},
					{ID: IERSN, Data: rsne[2:]},
				},
			})},
			want: &AssociationRequest{
				Header: Header{
					Type:  layers.Dot11TypeMgmtAssociationReq,
					Addr1: bssid,
					Addr2: client,
					Addr3: bssid,
				},
				Capability:     CapabilityESS,
				ListenInterval: 10,
				SSID:           []byte("fuchsia-fake-ap"),
				RSNE:           rsne,
			},
		},
		{
			name: "deauthentication",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, DeauthFrame{
				DA: bssid, SA: client, BSSID: bssid,
				Reason: layers.Dot11ReasonDeauthStLeaving,
			})},
			want: &Deauthentication{
				Header: Header{
					Type:  layers.Dot11TypeMgmtDeauthentication,
					Addr1: bssid,
					Addr2: client,
					Addr3: bssid,
				},
				Reason: layers.Dot11ReasonDeauthStLeaving,
			},
		},
		{
			name: "disassociation",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, DisassocFrame{
				DA: bssid, SA: client, BSSID: bssid,
				Reason: layers.Dot11ReasonDisasStLeaving,
			})},
			want: &Disassociation{
				Header: Header{
					Type:  layers.Dot11TypeMgmtDisassociation,
					Addr1: bssid,
					Addr2: client,
					Addr3: bssid,
				},
				Reason: layers.Dot11ReasonDisasStLeaving,
			},
		},
		{
			name: "null data",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, NullFrame{
				Flags: layers.Dot11FlagsToDS | layers.Dot11FlagsPowerManagement,
				Addr1: bssid, Addr2: client, Addr3: bssid,
			})},
			want: &NullData{
				Header: Header{
					Type:  layers.Dot11TypeDataNull,
					Flags: layers.Dot11FlagsToDS | layers.Dot11FlagsPowerManagement,
					Addr1: bssid,
					Addr2: client,
					Addr3: bssid,
				},
			},
		},
		{
			name: "llc data",
			p: Packet{Peer: PeerWlan, Data: mustSerialize(t, DataFrame{
				Flags: layers.Dot11FlagsFromDS | layers.Dot11FlagsMD,
				Addr1: client, Addr2: bssid, Addr3: bssid,
				SeqNum:    4095,
				EtherType: layers.EthernetTypeEAPOL,
				Payload:   []byte{1, 2, 3, 4, 5},
			})},
			want: &LLCData{
				Header: Header{
					Type:   layers.Dot11TypeData,
					Flags:  layers.Dot11FlagsFromDS | layers.Dot11FlagsMD,
					Addr1:  client,
					Addr2:  bssid,
					Addr3:  bssid,
					SeqNum: 4095,
				},
				EtherType: layers.EthernetTypeEAPOL,
				Payload:   []byte{1, 2, 3, 4, 5},
			},
		},
		{
			name: "ethernet",
			p: Packet{Peer: PeerEthernet, Data: mustSerialize(t, EthFrame{
				Dst: client, Src: bssid,
				EtherType: layers.EthernetTypeIPv4,
				Payload:   bytes.Repeat([]byte{0xab}, 46),
			})},
			want: &Ethernet{
				Dst:       client,
				Src:       bssid,
				EtherType: layers.EthernetTypeIPv4,
				Payload:   bytes.Repeat([]byte{0xab}, 46),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.p)
			if err != nil {
				t.Fatalf("failed to classify: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected frame (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	auth := mustSerialize(t, AuthFrame{DA: bssid, SA: client, BSSID: bssid, Transaction: 1})

	badFCS := bytes.Clone(auth)
	badFCS[len(badFCS)-1] ^= 0xff

	truncatedAuth := AppendFCS(bytes.Clone(TrimFCS(auth)[:26]))

	probe, err := serialize(mgmtHeader(layers.Dot11TypeMgmtProbeReq, bssid, client, bssid, 0))
	if err != nil {
		t.Fatalf("failed to serialize probe request: %v", err)
	}

	badIEs := mustSerialize(t, AssocReqFrame{DA: bssid, SA: client, BSSID: bssid})
	badIEs = AppendFCS(append(bytes.Clone(TrimFCS(badIEs)), IESSID, 10, 'a'))

	nonSNAP, err := serialize(
		&layers.Dot11{Type: layers.Dot11TypeData, Flags: layers.Dot11FlagsToDS, Address1: bssid, Address2: client, Address3: bssid},
		&layers.LLC{DSAP: 0x42, SSAP: 0x42, Control: llcControlUI},
	)
	if err != nil {
		t.Fatalf("failed to serialize llc frame: %v", err)
	}

	tests := []struct {
		name string
		p    Packet
		want error
	}{
		{
			name: "empty",
			p:    Packet{Peer: PeerWlan},
			want: ErrTooShort,
		},
		{
			name: "short header",
			p:    Packet{Peer: PeerWlan, Data: []byte{0xb0, 0x00, 0x00, 0x00, 0x01}},
			want: ErrTooShort,
		},
		{
			name: "bad fcs",
			p:    Packet{Peer: PeerWlan, Data: badFCS},
			want: ErrBadFCS,
		},
		{
			name: "truncated authentication body",
			p:    Packet{Peer: PeerWlan, Data: truncatedAuth},
			want: ErrTooShort,
		},
		{
			name: "unsupported subtype",
			p:    Packet{Peer: PeerWlan, Data: AppendFCS(probe)},
			want: ErrUnsupported,
		},
		{
			name: "truncated information element",
			p:    Packet{Peer: PeerWlan, Data: badIEs},
			want: ErrTooShort,
		},
		{
			name: "not snap",
			p:    Packet{Peer: PeerWlan, Data: AppendFCS(nonSNAP)},
			want: ErrUnsupported,
		},
		{
			name: "short ethernet",
			p:    Packet{Peer: PeerEthernet, Data: []byte{0x01, 0x02, 0x03}},
			want: ErrTooShort,
		},
		{
			name: "unknown peer",
			p:    Packet{Data: auth},
			want: ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("unexpected error: want %v, got %v", tt.want, err)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestAssocRespFrameAID(t *testing.T) {
	b := mustSerialize(t, AssocRespFrame{
		DA: client, SA: bssid, BSSID: bssid,
		Capability: CapabilityESS,
		Status:     layers.Dot11StatusSuccess,
		AID:        1,
	})

	var d layers.Dot11
	if err := d.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("failed to decode header: %v", err)
	}
	var resp layers.Dot11MgmtAssociationResp
	if err := resp.DecodeFromBytes(d.Payload, gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	type fields struct {
		Capability uint16
		Status     layers.Dot11Status
		AID        uint16
	}
	want := fields{Capability: CapabilityESS, Status: layers.Dot11StatusSuccess, AID: 0xc001}
	got := fields{Capability: resp.CapabilityInfo, Status: resp.Status, AID: resp.AID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected association response (-want +got):\n%s", diff)
	}
}

func TestAddBAReqFrame(t *testing.T) {
	b := mustSerialize(t, AddBAReqFrame{DA: client, SA: bssid, BSSID: bssid, DialogToken: 1})

	f, err := Classify(Packet{Peer: PeerWlan, Data: b})
	if err != nil {
		t.Fatalf("failed to classify: %v", err)
	}
	a, ok := f.(*Action)
	if !ok {
		t.Fatalf("expected *Action, got %T", f)
	}

	if a.Category != CategoryBlockAck {
		t.Fatalf("unexpected category: %d", a.Category)
	}
	want := []byte{0x00, 0x01, 0x03, 0x10, 0x00, 0x00, 0x00, 0x00}
	if diff := cmp.Diff(want, a.Body); diff != "" {
		t.Fatalf("unexpected action body (-want +got):\n%s", diff)
	}
}

func TestEthFrameShortPayloadPadded(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	b := mustSerialize(t, EthFrame{Dst: bssid, Src: client, EtherType: layers.EthernetTypeIPv4, Payload: payload})

	// 14 byte header plus the 46 byte minimum payload.
	if diff := cmp.Diff(60, len(b)); diff != "" {
		t.Fatalf("unexpected frame length (-want +got):\n%s", diff)
	}
	want := append(bytes.Clone(payload), make([]byte, 46-len(payload))...)
	if diff := cmp.Diff(want, b[14:]); diff != "" {
		t.Fatalf("unexpected padded payload (-want +got):\n%s", diff)
	}

	// Payloads at the minimum are carried unchanged.
	long := bytes.Repeat([]byte{0x5a}, 46)
	b = mustSerialize(t, EthFrame{Dst: bssid, Src: client, EtherType: layers.EthernetTypeIPv4, Payload: long})
	if diff := cmp.Diff(long, b[14:]); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestSequencerWraps(t *testing.T) {
	s := Sequencer{next: 4094}

	var got []uint16
	for i := 0; i < 3; i++ {
		got = append(got, s.Next())
	}

	if diff := cmp.Diff([]uint16{4094, 4095, 0}, got); diff != "" {
		t.Fatalf("unexpected sequence numbers (-want +got):\n%s", diff)
	}
}

func TestParseIEs(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		ies  []IE
		ok   bool
	}{
		{
			name: "empty",
			ok:   true,
		},
		{
			name: "one byte",
			b:    []byte{IESSID},
		},
		{
			name: "length overflow",
			b:    []byte{IESSID, 3, 'a'},
		},
		{
			name: "ssid and rsn",
			b:    []byte{IESSID, 2, 'h', 'i', IERSN, 1, 0x01},
			ies: []IE{
				{ID: IESSID, Data: []byte("hi")},
				{ID: IERSN, Data: []byte{0x01}},
			},
			ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ies, err := ParseIEs(tt.b)
			if tt.ok && err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected an error, but none occurred")
				}
				return
			}

			if diff := cmp.Diff(tt.ies, ies); diff != "" {
				t.Fatalf("unexpected elements (-want +got):\n%s", diff)
			}
		})
	}
}
