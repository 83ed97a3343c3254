package ap

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
)

var (
	bssid   = mlme.MustAddr("b7:cd:3f:b0:93:01")
	client  = mlme.MustAddr("94:3c:49:49:9f:2d")
	client2 = mlme.MustAddr("94:3c:49:49:9f:2e")
	other   = mlme.MustAddr("02:00:00:00:00:99")

	testSSID           = "apmlme-test"
	testListenInterval = uint16(100)
	testRSNE           = []byte{
		0x30, 0x12, 0x01, 0x00,
		0x00, 0x0f, 0xac, 0x04,
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x04,
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x02,
	}
	testKey = []byte{
		0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4a, 0x4b, 0x4c, 0x4d, 0x4e, 0x4f,
	}
	testCipherOUI  = [3]byte{0x00, 0x0f, 0xac}
	testCipherType = uint8(4)
	eapolPDU       = []byte{0x02, 0x03, 0x00, 0x00, 0x00}

	// Ethernet payloads are at least 46 bytes so they are never padded.
	testPayload = []byte("the quick brown fox jumps over the lazy dog again")
	payload2    = bytes.Repeat([]byte("msg2"), 12)
)

type fakeDevice struct {
	wlan [][]byte
	eth  [][]byte
	svc  []mlme.Message

	keys        []KeyConfig
	deletedKeys []KeyConfig
	assocs      []AssocContext
	cleared     []mlme.MACAddr

	wlanErr error
}

func (d *fakeDevice) SendWlanFrame(b []byte) error {
	if d.wlanErr != nil {
		return d.wlanErr
	}
	d.wlan = append(d.wlan, bytes.Clone(b))
	return nil
}

func (d *fakeDevice) SendEthernetFrame(b []byte) error {
	d.eth = append(d.eth, bytes.Clone(b))
	return nil
}

func (d *fakeDevice) SendServiceMessage(m mlme.Message) error {
	d.svc = append(d.svc, m)
	return nil
}

func (d *fakeDevice) ConfigureAssoc(ctx AssocContext) error {
	d.assocs = append(d.assocs, ctx)
	return nil
}

func (d *fakeDevice) ClearAssoc(addr mlme.MACAddr) error {
	d.cleared = append(d.cleared, addr)
	return nil
}

func (d *fakeDevice) SetKey(k KeyConfig) error {
	d.keys = append(d.keys, k)
	return nil
}

func (d *fakeDevice) DeleteKey(k KeyConfig) error {
	d.deletedKeys = append(d.deletedKeys, k)
	return nil
}

func (d *fakeDevice) clearQueues() {
	d.wlan, d.eth, d.svc = nil, nil, nil
}

type fakeBeaconer struct {
	armed    []Config
	disarmed int
	err      error
}

func (b *fakeBeaconer) Arm(cfg Config) error {
	if b.err != nil {
		return b.err
	}
	b.armed = append(b.armed, cfg)
	return nil
}

func (b *fakeBeaconer) Disarm() error {
	b.disarmed++
	return nil
}

type fakeRecorder struct {
	dropped     map[string]int
	transmitted map[string]int
	clients     map[string]int
	buffered    int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		dropped:     make(map[string]int),
		transmitted: make(map[string]int),
		clients:     make(map[string]int),
	}
}

func (r *fakeRecorder) FrameDropped(reason string)     { r.dropped[reason]++ }
func (r *fakeRecorder) FrameTransmitted(kind string)   { r.transmitted[kind]++ }
func (r *fakeRecorder) SetClients(state string, n int) { r.clients[state] = n }
func (r *fakeRecorder) SetBuffered(n int)              { r.buffered = n }

// A bssTest drives a Bss through a fake device.
type bssTest struct {
	t   *testing.T
	dev *fakeDevice
	bcn *fakeBeaconer
	bss *Bss
}

func newBssTest(t *testing.T, opts ...Option) *bssTest {
	t.Helper()

	dev := &fakeDevice{}
	bcn := &fakeBeaconer{}
	bt := &bssTest{
		t:   t,
		dev: dev,
		bcn: bcn,
		bss: NewBss(dev, bcn, bssid, opts...),
	}
	t.Cleanup(bt.bss.Stop)
	return bt
}

func startRequest(protected bool) mlme.StartRequest {
	req := mlme.StartRequest{
		SSID:         testSSID,
		BeaconPeriod: 100,
		DTIMPeriod:   2,
		Channel:      6,
	}
	if protected {
		req.RSNE = testRSNE
	}
	return req
}

func (bt *bssTest) startAP(protected bool) {
	bt.t.Helper()

	if err := bt.bss.Start(startRequest(protected)); err != nil {
		bt.t.Fatalf("failed to start bss: %v", err)
	}
	bt.dev.clearQueues()
}

type serializer interface {
	Serialize() ([]byte, error)
}

func (bt *bssTest) handleWlan(s serializer) {
	bt.t.Helper()

	b, err := s.Serialize()
	if err != nil {
		bt.t.Fatalf("failed to serialize %T: %v", s, err)
	}
	bt.bss.HandleAnyFrame(frame.Packet{Peer: frame.PeerWlan, Data: b})
}

func (bt *bssTest) sendAuthReq(peer mlme.MACAddr) {
	bt.handleWlan(frame.AuthFrame{
		DA:          bssid.HardwareAddr(),
		SA:          peer.HardwareAddr(),
		BSSID:       bssid.HardwareAddr(),
		Algorithm:   layers.Dot11AlgorithmOpen,
		Transaction: 1,
	})
}

func (bt *bssTest) sendAssocReq(peer mlme.MACAddr) {
	bt.handleWlan(frame.AssocReqFrame{
		DA:             bssid.HardwareAddr(),
		SA:             peer.HardwareAddr(),
		BSSID:          bssid.HardwareAddr(),
		Capability:     frame.CapabilityESS,
		ListenInterval: testListenInterval,
		IEs: []frame.IE{
			{ID: frame.IESSID, Data: []byte(testSSID)},
			{ID: frame.IERSN, Data: testRSNE[2:]},
		},
	})
}

func (bt *bssTest) sendNullData(peer mlme.MACAddr, pwrMgmt bool) {
	flags := layers.Dot11FlagsToDS
	if pwrMgmt {
		flags |= layers.Dot11FlagsPowerManagement
	}
	bt.handleWlan(frame.NullFrame{
		Flags: flags,
		Addr1: bssid.HardwareAddr(),
		Addr2: peer.HardwareAddr(),
		Addr3: bssid.HardwareAddr(),
	})
}

func (bt *bssTest) sendDataFrame(peer mlme.MACAddr, et layers.EthernetType, payload []byte) {
	bt.handleWlan(frame.DataFrame{
		Flags:     layers.Dot11FlagsToDS,
		Addr1:     bssid.HardwareAddr(),
		Addr2:     peer.HardwareAddr(),
		Addr3:     bssid.HardwareAddr(),
		EtherType: et,
		Payload:   payload,
	})
}

func (bt *bssTest) sendEthFrame(dst mlme.MACAddr, payload []byte) {
	bt.t.Helper()

	b, err := frame.EthFrame{
		Dst:       dst.HardwareAddr(),
		Src:       bssid.HardwareAddr(),
		EtherType: layers.EthernetTypeIPv4,
		Payload:   payload,
	}.Serialize()
	if err != nil {
		bt.t.Fatalf("failed to serialize ethernet frame: %v", err)
	}
	bt.bss.HandleAnyFrame(frame.Packet{Peer: frame.PeerEthernet, Data: b})
}

func (bt *bssTest) authResponse(peer mlme.MACAddr, code mlme.AuthenticateResultCode) {
	bt.bss.HandleMlmeMsg(mlme.AuthenticateResponse{PeerSTAAddress: peer, ResultCode: code})
}

func (bt *bssTest) assocResponse(peer mlme.MACAddr, code mlme.AssociateResultCode) {
	bt.bss.HandleMlmeMsg(mlme.AssociateResponse{PeerSTAAddress: peer, ResultCode: code})
}

func (bt *bssTest) eapolRequest(peer mlme.MACAddr) {
	bt.bss.HandleMlmeMsg(mlme.EapolRequest{
		SrcAddr: bssid,
		DstAddr: peer,
		Data:    eapolPDU,
	})
}

func (bt *bssTest) setKeys(peer mlme.MACAddr) {
	bt.bss.HandleMlmeMsg(mlme.SetKeysRequest{Keylist: []mlme.SetKeyDescriptor{{
		Key:             testKey,
		KeyID:           1,
		KeyType:         mlme.KeyTypePairwise,
		Address:         peer,
		CipherSuiteOUI:  testCipherOUI,
		CipherSuiteType: testCipherType,
	}}})
}

func (bt *bssTest) authenticate(peer mlme.MACAddr) {
	bt.sendAuthReq(peer)
	bt.authResponse(peer, mlme.AuthenticateSuccess)
	bt.dev.clearQueues()
}

func (bt *bssTest) associate(peer mlme.MACAddr) {
	bt.sendAssocReq(peer)
	bt.assocResponse(peer, mlme.AssociateSuccess)
	bt.dev.clearQueues()
}

func (bt *bssTest) authenticateAndAssociate(peer mlme.MACAddr) {
	bt.authenticate(peer)
	bt.associate(peer)
}

// establishRSNA installs a pairwise key, which opens the controlled port.
func (bt *bssTest) establishRSNA(peer mlme.MACAddr) {
	bt.setKeys(peer)
	bt.dev.clearQueues()
}

func addr(t *testing.T, a net.HardwareAddr) mlme.MACAddr {
	t.Helper()

	m, ok := mlme.AddrFrom(a)
	if !ok {
		t.Fatalf("bad address: %v", a)
	}
	return m
}

type authSummary struct {
	Addr1, Addr2, Addr3 mlme.MACAddr
	Algorithm           layers.Dot11Algorithm
	Transaction         uint16
	Status              layers.Dot11Status
}

func parseAuth(t *testing.T, b []byte) authSummary {
	t.Helper()

	f, err := frame.Classify(frame.Packet{Peer: frame.PeerWlan, Data: b})
	if err != nil {
		t.Fatalf("failed to classify: %v", err)
	}
	a, ok := f.(*frame.Authentication)
	if !ok {
		t.Fatalf("expected authentication frame, got %T", f)
	}
	return authSummary{
		Addr1:       addr(t, a.Addr1),
		Addr2:       addr(t, a.Addr2),
		Addr3:       addr(t, a.Addr3),
		Algorithm:   a.Algorithm,
		Transaction: a.Transaction,
		Status:      a.Status,
	}
}

type mgmtSummary struct {
	Type                layers.Dot11Type
	Addr1, Addr2, Addr3 mlme.MACAddr
	SeqNum              uint16
	Body                []byte
}

func parseMgmt(t *testing.T, b []byte) mgmtSummary {
	t.Helper()

	var d layers.Dot11
	if err := d.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("failed to decode 802.11 header: %v", err)
	}
	if !d.ChecksumValid() {
		t.Fatal("bad frame check sequence")
	}
	return mgmtSummary{
		Type:   d.Type,
		Addr1:  addr(t, d.Address1),
		Addr2:  addr(t, d.Address2),
		Addr3:  addr(t, d.Address3),
		SeqNum: d.SequenceNumber,
		Body:   d.Payload,
	}
}

type assocRespSummary struct {
	Addr1, Addr2, Addr3 mlme.MACAddr
	Status              layers.Dot11Status
	AID                 uint16
}

func parseAssocResp(t *testing.T, b []byte) assocRespSummary {
	t.Helper()

	m := parseMgmt(t, b)
	if m.Type != layers.Dot11TypeMgmtAssociationResp {
		t.Fatalf("expected association response, got %v", m.Type)
	}
	var r layers.Dot11MgmtAssociationResp
	if err := r.DecodeFromBytes(m.Body, gopacket.NilDecodeFeedback); err != nil {
		t.Fatalf("failed to decode association response: %v", err)
	}
	return assocRespSummary{
		Addr1:  m.Addr1,
		Addr2:  m.Addr2,
		Addr3:  m.Addr3,
		Status: r.Status,
		AID:    r.AID & 0x3fff,
	}
}

type dataSummary struct {
	Addr1, Addr2, Addr3 mlme.MACAddr
	FromDS              bool
	Protected           bool
	MoreData            bool
	EtherType           layers.EthernetType
	Payload             []byte
}

func parseData(t *testing.T, b []byte) dataSummary {
	t.Helper()

	f, err := frame.Classify(frame.Packet{Peer: frame.PeerWlan, Data: b})
	if err != nil {
		t.Fatalf("failed to classify: %v", err)
	}
	d, ok := f.(*frame.LLCData)
	if !ok {
		t.Fatalf("expected data frame, got %T", f)
	}
	return dataSummary{
		Addr1:     addr(t, d.Addr1),
		Addr2:     addr(t, d.Addr2),
		Addr3:     addr(t, d.Addr3),
		FromDS:    d.Flags.FromDS(),
		Protected: d.Flags.WEP(),
		MoreData:  d.Flags.MD(),
		EtherType: d.EtherType,
		Payload:   d.Payload,
	}
}

// toClient is the summary of a data frame the BSS relays from the local
// network to c.
func toClient(c mlme.MACAddr, payload []byte, protected, moreData bool) dataSummary {
	return dataSummary{
		Addr1:     c,
		Addr2:     bssid,
		Addr3:     bssid,
		FromDS:    true,
		Protected: protected,
		MoreData:  moreData,
		EtherType: layers.EthernetTypeIPv4,
		Payload:   payload,
	}
}

type ethSummary struct {
	Dst, Src  mlme.MACAddr
	EtherType layers.EthernetType
	Payload   []byte
}

func parseEth(t *testing.T, b []byte) ethSummary {
	t.Helper()

	f, err := frame.Classify(frame.Packet{Peer: frame.PeerEthernet, Data: b})
	if err != nil {
		t.Fatalf("failed to classify: %v", err)
	}
	e := f.(*frame.Ethernet)
	return ethSummary{
		Dst:       addr(t, e.Dst),
		Src:       addr(t, e.Src),
		EtherType: e.EtherType,
		Payload:   e.Payload,
	}
}
