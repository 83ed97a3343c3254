// Package ap implements the MAC layer management entity of an infrastructure
// BSS. A Bss tracks per-station authentication, association, controlled
// port and power-save state, relays data between the wireless medium and the
// local network, and exchanges mlme messages with a station management
// entity (SME).
//
// A Bss is not safe for concurrent use. Callers that receive events on
// several goroutines hand them to a Runner.
package ap

import (
	"bytes"
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Reasons passed to Recorder.FrameDropped.
const (
	DropMalformed        = "malformed"
	DropNotStarted       = "not_started"
	DropNotForBSS        = "not_for_bss"
	DropUnknownClient    = "unknown_client"
	DropNotAuthenticated = "not_authenticated"
	DropNotAssociated    = "not_associated"
	DropPortClosed       = "port_closed"
	DropUnexpected       = "unexpected"
	DropRateLimited      = "rate_limited"
	DropQueueFull        = "ps_queue_full"
	DropGroupProtected   = "group_protected"
	DropUnhandled        = "unhandled"
	DropTxFailed         = "tx_failed"
)

// Kinds passed to Recorder.FrameTransmitted.
const (
	TxAuth      = "auth"
	TxAssocResp = "assoc_resp"
	TxAddBA     = "addba"
	TxDeauth    = "deauth"
	TxData      = "data"
	TxEapol     = "eapol"
	TxEthernet  = "ethernet"
)

// Client states passed to Recorder.SetClients.
const (
	StateAuthenticated = "authenticated"
	StateAssociated    = "associated"
	StatePortOpen      = "port_open"
)

// An Option configures a Bss.
type Option func(*Bss)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bss) { b.log = l }
}

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Bss) { b.rec = r }
}

// WithAuthRateLimit limits how fast records for new stations are created.
// A non-positive r leaves admission unlimited.
func WithAuthRateLimit(r rate.Limit, burst int) Option {
	return func(b *Bss) {
		if r <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(r, max(burst, 1))
	}
}

// WithMaxBufferedFrames caps each dozing station's queue at n frames. Zero
// leaves queues unbounded.
func WithMaxBufferedFrames(n int) Option {
	return func(b *Bss) { b.maxBuffered = n }
}

// WithMaxAssociations caps the number of association IDs handed out.
func WithMaxAssociations(n int) Option {
	return func(b *Bss) { b.maxAssoc = n }
}

// A Bss is the access point state machine for one BSS.
type Bss struct {
	dev   Device
	bcn   Beaconer
	bssid mlme.MACAddr

	log         *zap.Logger
	rec         Recorder
	limiter     *rate.Limiter
	maxBuffered int
	maxAssoc    int

	started  bool
	cfg      Config
	clients  map[mlme.MACAddr]*remoteClient
	aids     *aidPool
	seq      frame.Sequencer
	token    uint8
	buffered int
}

// NewBss creates a stopped Bss that transmits through dev and schedules
// beacons through bcn.
func NewBss(dev Device, bcn Beaconer, bssid mlme.MACAddr, opts ...Option) *Bss {
	if dev == nil || bcn == nil {
		panic("ap: NewBss requires a device and a beaconer")
	}

	b := &Bss{
		dev:   dev,
		bcn:   bcn,
		bssid: bssid,
		log:   zap.NewNop(),
		rec:   nopRecorder{},
	}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With(zap.Stringer("bssid", bssid))
	return b
}

// BSSID returns the address of the BSS.
func (b *Bss) BSSID() mlme.MACAddr { return b.bssid }

// Started reports whether the BSS is started.
func (b *Bss) Started() bool { return b.started }

// Config returns the configuration of the running session.
func (b *Bss) Config() (Config, bool) { return b.cfg, b.started }

// Start starts the BSS described by req and arms beacons. A non-empty RSNE
// starts a protected BSS. Start panics if the BSS is already started.
func (b *Bss) Start(req mlme.StartRequest) error {
	if b.started {
		panic("ap: Start called on a started BSS")
	}

	cfg := Config{
		BSSID:        b.bssid,
		SSID:         req.SSID,
		Protected:    len(req.RSNE) > 0,
		BeaconPeriod: req.BeaconPeriod,
		DTIMPeriod:   req.DTIMPeriod,
		Channel:      req.Channel,
		RSNE:         bytes.Clone(req.RSNE),
	}
	if err := b.bcn.Arm(cfg); err != nil {
		return fmt.Errorf("ap: arm beacons: %w", err)
	}

	b.cfg = cfg
	b.clients = make(map[mlme.MACAddr]*remoteClient)
	b.aids = newAIDPool(b.maxAssoc)
	b.token = 1
	b.buffered = 0
	b.started = true

	b.log.Info("bss started",
		zap.String("ssid", cfg.SSID),
		zap.Bool("protected", cfg.Protected),
		zap.Uint8("channel", cfg.Channel),
	)
	b.updateGauges()
	return nil
}

// Stop releases every client record and disarms beacons. Stopping a
// stopped BSS does nothing.
func (b *Bss) Stop() {
	if !b.started {
		return
	}

	for _, c := range b.clients {
		b.disassociate(c)
	}
	b.clients = nil
	b.aids = nil
	b.started = false

	if err := b.bcn.Disarm(); err != nil {
		b.log.Warn("failed to disarm beacons", zap.Error(err))
	}
	b.log.Info("bss stopped")
	b.updateGauges()
}

// HandleAnyFrame processes a frame from the wireless medium or the local
// network. Frames that are malformed, not addressed to this BSS, or out of
// order for their sender are dropped.
func (b *Bss) HandleAnyFrame(p frame.Packet) {
	if !b.started {
		b.drop(DropNotStarted, zap.Stringer("origin", p.Peer))
		return
	}
	defer b.updateGauges()

	f, err := frame.Classify(p)
	if err != nil {
		b.drop(DropMalformed, zap.Error(err))
		return
	}

	switch f := f.(type) {
	case *frame.Ethernet:
		b.handleEthernet(f)
	case *frame.Authentication:
		if peer, ok := b.mgmtPeer(f.Header); ok {
			b.handleAuthentication(peer, f)
		}
	case *frame.AssociationRequest:
		if peer, ok := b.mgmtPeer(f.Header); ok {
			b.handleAssociationRequest(peer, f)
		}
	case *frame.Deauthentication:
		if peer, ok := b.mgmtPeer(f.Header); ok {
			b.handleDeauthentication(peer, f)
		}
	case *frame.Disassociation:
		if peer, ok := b.mgmtPeer(f.Header); ok {
			b.handleDisassociation(peer, f)
		}
	case *frame.Action:
		if peer, ok := b.mgmtPeer(f.Header); ok {
			b.log.Debug("ignoring action frame", peerField(peer), zap.Uint8("category", f.Category))
		}
	case *frame.NullData:
		if peer, ok := b.dataPeer(f.Header); ok {
			b.handleNullData(peer, f)
		}
	case *frame.LLCData:
		if peer, ok := b.dataPeer(f.Header); ok {
			b.handleLLCData(peer, f)
		}
	default:
		b.drop(DropUnhandled, zap.String("frame", fmt.Sprintf("%T", f)))
	}
}

// HandleMlmeMsg processes a message from the SME. StartRequest and
// StopRequest are answered with a confirm; other messages require a started
// BSS and are dropped when they do not follow a matching indication.
func (b *Bss) HandleMlmeMsg(m mlme.Message) {
	switch m := m.(type) {
	case nil:
		b.drop(DropUnhandled)
		return
	case mlme.StartRequest:
		b.handleStartRequest(m)
		return
	case mlme.StopRequest:
		b.handleStopRequest()
		return
	}

	if !b.started {
		b.drop(DropNotStarted, zap.String("method", string(m.Method())))
		return
	}
	defer b.updateGauges()

	switch m := m.(type) {
	case mlme.AuthenticateResponse:
		b.handleAuthenticateResponse(m)
	case mlme.AssociateResponse:
		b.handleAssociateResponse(m)
	case mlme.DeauthenticateRequest:
		b.handleDeauthenticateRequest(m)
	case mlme.EapolRequest:
		b.handleEapolRequest(m)
	case mlme.SetKeysRequest:
		b.handleSetKeysRequest(m)
	default:
		b.drop(DropUnhandled, zap.String("method", string(m.Method())))
	}
}

func (b *Bss) handleStartRequest(req mlme.StartRequest) {
	if b.started {
		b.sendMessage(mlme.StartConfirm{ResultCode: mlme.StartBssAlreadyStartedOrJoined})
		return
	}
	if err := b.Start(req); err != nil {
		b.log.Error("failed to start bss", zap.Error(err))
		b.sendMessage(mlme.StartConfirm{ResultCode: mlme.StartInternalError})
		return
	}
	b.sendMessage(mlme.StartConfirm{ResultCode: mlme.StartSuccess})
}

func (b *Bss) handleStopRequest() {
	if !b.started {
		b.sendMessage(mlme.StopConfirm{ResultCode: mlme.StopBssAlreadyStopped})
		return
	}
	b.Stop()
	b.sendMessage(mlme.StopConfirm{ResultCode: mlme.StopSuccess})
}

// mgmtPeer returns the sender of a management frame addressed to this BSS.
func (b *Bss) mgmtPeer(h frame.Header) (mlme.MACAddr, bool) {
	if !bytes.Equal(h.Addr1, b.bssid[:]) || !bytes.Equal(h.Addr3, b.bssid[:]) {
		b.drop(DropNotForBSS, zap.Stringer("type", h.Type))
		return mlme.MACAddr{}, false
	}
	return b.sender(h)
}

// dataPeer returns the sender of a data frame bound for the DS via this BSS.
func (b *Bss) dataPeer(h frame.Header) (mlme.MACAddr, bool) {
	if !h.ToAP() || !bytes.Equal(h.Addr1, b.bssid[:]) {
		b.drop(DropNotForBSS, zap.Stringer("type", h.Type))
		return mlme.MACAddr{}, false
	}
	return b.sender(h)
}

func (b *Bss) sender(h frame.Header) (mlme.MACAddr, bool) {
	peer, ok := mlme.AddrFrom(h.Addr2)
	if !ok || peer.IsGroup() {
		b.drop(DropMalformed, zap.Stringer("type", h.Type))
		return mlme.MACAddr{}, false
	}
	return peer, true
}

func (b *Bss) handleAuthentication(peer mlme.MACAddr, f *frame.Authentication) {
	if f.Transaction != 1 {
		b.drop(DropUnexpected, peerField(peer), zap.Uint16("transaction", f.Transaction))
		return
	}
	if f.Algorithm != layers.Dot11AlgorithmOpen {
		b.log.Debug("unsupported authentication algorithm",
			peerField(peer), zap.Stringer("algorithm", f.Algorithm))
		b.sendAuth(peer, f.Algorithm, layers.Dot11StatusAlgorithmUnsupported)
		return
	}

	c, ok := b.clients[peer]
	if ok && c.authPending {
		b.drop(DropUnexpected, peerField(peer), zap.Bool("auth_pending", true))
		return
	}
	switch {
	case !ok:
		if b.limiter != nil && !b.limiter.Allow() {
			b.drop(DropRateLimited, peerField(peer))
			return
		}
		c = newRemoteClient(peer)
		b.clients[peer] = c
	case c.auth == authenticated:
		b.log.Info("client re-authenticating", peerField(peer))
		b.disassociate(c)
		c.auth = unauthenticated
	}

	c.authPending = true
	b.sendMessage(mlme.AuthenticateIndication{
		PeerSTAAddress: peer,
		AuthType:       mlme.AuthOpenSystem,
	})
}

func (b *Bss) handleAuthenticateResponse(resp mlme.AuthenticateResponse) {
	c, ok := b.clients[resp.PeerSTAAddress]
	if !ok || !c.authPending {
		b.drop(DropUnexpected, peerField(resp.PeerSTAAddress), zap.String("method", string(resp.Method())))
		return
	}
	c.authPending = false

	status := layers.Dot11StatusSuccess
	if resp.ResultCode == mlme.AuthenticateSuccess {
		c.auth = authenticated
		b.log.Info("client authenticated", peerField(c.addr))
	} else {
		status = layers.Dot11StatusFailure
		b.log.Info("authentication refused", peerField(c.addr), zap.Stringer("result", resp.ResultCode))
	}
	b.sendAuth(c.addr, layers.Dot11AlgorithmOpen, status)
}

func (b *Bss) handleAssociationRequest(peer mlme.MACAddr, f *frame.AssociationRequest) {
	c, ok := b.clients[peer]
	if !ok || c.auth != authenticated {
		b.drop(DropNotAuthenticated, peerField(peer))
		return
	}
	if c.assoc == associated {
		b.log.Info("client re-associating", peerField(peer))
		b.disassociate(c)
	}

	c.assocPending = true
	c.listenInterval = f.ListenInterval
	c.capability = f.Capability
	b.sendMessage(mlme.AssociateIndication{
		PeerSTAAddress: peer,
		ListenInterval: f.ListenInterval,
		SSID:           f.SSID,
		RSNE:           f.RSNE,
	})
}

func (b *Bss) handleAssociateResponse(resp mlme.AssociateResponse) {
	c, ok := b.clients[resp.PeerSTAAddress]
	if !ok || !c.assocPending {
		b.drop(DropUnexpected, peerField(resp.PeerSTAAddress), zap.String("method", string(resp.Method())))
		return
	}
	c.assocPending = false

	if resp.ResultCode != mlme.AssociateSuccess {
		b.log.Info("association refused", peerField(c.addr), zap.Stringer("result", resp.ResultCode))
		b.sendAssocResp(c.addr, layers.Dot11StatusFailure, 0)
		return
	}

	aid, ok := b.aids.alloc()
	if !ok {
		b.log.Warn("no association id available", peerField(c.addr))
		b.sendAssocResp(c.addr, layers.Dot11StatusAPUnableToHandle, 0)
		return
	}

	c.aid = aid
	c.assoc = associated
	c.portOpen = !b.cfg.Protected

	err := b.dev.ConfigureAssoc(AssocContext{
		Addr:           c.addr,
		AID:            aid,
		ListenInterval: c.listenInterval,
		Capability:     c.capability,
		PortOpen:       c.portOpen,
	})
	if err != nil {
		b.log.Warn("failed to configure station", peerField(c.addr), zap.Error(err))
	}

	b.log.Info("client associated",
		peerField(c.addr), zap.Uint16("aid", aid), zap.Bool("port_open", c.portOpen))
	b.sendAssocResp(c.addr, layers.Dot11StatusSuccess, aid)
	b.sendAddBA(c.addr)
}

func (b *Bss) handleDeauthentication(peer mlme.MACAddr, f *frame.Deauthentication) {
	c, ok := b.clients[peer]
	if !ok {
		b.drop(DropUnknownClient, peerField(peer))
		return
	}
	b.remove(c)
	b.log.Info("client deauthenticated", peerField(peer), zap.Stringer("reason", f.Reason))
	b.sendMessage(mlme.DeauthenticateIndication{
		PeerSTAAddress: peer,
		ReasonCode:     uint16(f.Reason),
	})
}

func (b *Bss) handleDisassociation(peer mlme.MACAddr, f *frame.Disassociation) {
	c := b.clients[peer]
	if !c.isAssociated() {
		b.drop(DropNotAssociated, peerField(peer))
		return
	}
	b.disassociate(c)
	b.log.Info("client disassociated", peerField(peer), zap.Stringer("reason", f.Reason))
	b.sendMessage(mlme.DisassociateIndication{
		PeerSTAAddress: peer,
		ReasonCode:     uint16(f.Reason),
	})
}

func (b *Bss) handleDeauthenticateRequest(req mlme.DeauthenticateRequest) {
	c, ok := b.clients[req.PeerSTAAddress]
	if !ok {
		b.drop(DropUnknownClient, peerField(req.PeerSTAAddress))
		return
	}
	b.sendDeauth(c.addr, layers.Dot11Reason(req.ReasonCode))
	b.remove(c)
	b.log.Info("client deauthenticated by sme", peerField(c.addr), zap.Uint16("reason", req.ReasonCode))
	b.sendMessage(mlme.DeauthenticateConfirm{PeerSTAAddress: c.addr})
}

func (b *Bss) handleNullData(peer mlme.MACAddr, f *frame.NullData) {
	c := b.clients[peer]
	if !c.isAssociated() {
		b.drop(DropNotAssociated, peerField(peer))
		return
	}
	if !c.portOpen {
		b.log.Debug("ignoring power management while port is closed", peerField(peer))
		return
	}

	switch {
	case f.PowerManagement() && c.power == awake:
		c.power = dozing
		b.log.Info("client dozing", peerField(peer))
	case !f.PowerManagement() && c.power == dozing:
		c.power = awake
		b.log.Info("client awake", peerField(peer), zap.Int("buffered", c.pending.len()))
		b.flush(c)
	}
}

func (b *Bss) handleLLCData(peer mlme.MACAddr, f *frame.LLCData) {
	c := b.clients[peer]
	if !c.isAssociated() {
		b.drop(DropNotAssociated, peerField(peer))
		return
	}

	if f.EtherType == layers.EthernetTypeEAPOL {
		dst, _ := mlme.AddrFrom(f.Addr3)
		b.sendMessage(mlme.EapolIndication{
			SrcAddr: peer,
			DstAddr: dst,
			Data:    bytes.Clone(f.Payload),
		})
		return
	}
	if !c.portOpen {
		b.drop(DropPortClosed, peerField(peer))
		return
	}

	eth, err := frame.EthFrame{
		Dst:       f.Addr3,
		Src:       f.Addr2,
		EtherType: f.EtherType,
		Payload:   f.Payload,
	}.Serialize()
	if err != nil {
		b.log.Warn("failed to encapsulate ethernet frame", peerField(peer), zap.Error(err))
		return
	}
	if err := b.dev.SendEthernetFrame(eth); err != nil {
		b.log.Warn("failed to send ethernet frame", peerField(peer), zap.Error(err))
		b.rec.FrameDropped(DropTxFailed)
		return
	}
	b.rec.FrameTransmitted(TxEthernet)
}

func (b *Bss) handleEthernet(f *frame.Ethernet) {
	dst, ok := mlme.AddrFrom(f.Dst)
	if !ok {
		b.drop(DropMalformed)
		return
	}
	src, ok := mlme.AddrFrom(f.Src)
	if !ok {
		b.drop(DropMalformed)
		return
	}

	if dst.IsGroup() {
		if b.cfg.Protected {
			b.drop(DropGroupProtected, zap.Stringer("dst", dst))
			return
		}
		_ = b.sendData(dst, src, f.EtherType, f.Payload, false, false, TxData)
		return
	}

	c := b.clients[dst]
	if !c.isAssociated() {
		b.drop(DropNotAssociated, peerField(dst))
		return
	}
	if c.power == dozing {
		if b.maxBuffered > 0 && c.pending.len() >= b.maxBuffered {
			b.drop(DropQueueFull, peerField(dst))
			return
		}
		c.pending.push(pendingFrame{
			src:       src,
			etherType: f.EtherType,
			payload:   bytes.Clone(f.Payload),
		})
		b.buffered++
		return
	}
	_ = b.sendData(dst, src, f.EtherType, f.Payload, b.protected(c), false, TxData)
}

func (b *Bss) handleEapolRequest(req mlme.EapolRequest) {
	c := b.clients[req.DstAddr]
	if !c.isAssociated() {
		b.drop(DropNotAssociated, peerField(req.DstAddr), zap.String("method", string(req.Method())))
		return
	}

	result := mlme.EapolSuccess
	if err := b.sendData(c.addr, req.SrcAddr, layers.EthernetTypeEAPOL, req.Data, b.protected(c), false, TxEapol); err != nil {
		result = mlme.EapolTransmissionFailure
	}
	b.sendMessage(mlme.EapolConfirm{ResultCode: result})
}

// handleSetKeysRequest installs keys for associated stations of a protected
// BSS. The first key installed for a station opens its controlled port.
func (b *Bss) handleSetKeysRequest(req mlme.SetKeysRequest) {
	if !b.cfg.Protected {
		b.log.Debug("ignoring keys for an unprotected bss", zap.Int("keys", len(req.Keylist)))
		return
	}

	for _, d := range req.Keylist {
		c := b.clients[d.Address]
		if !c.isAssociated() {
			b.drop(DropNotAssociated, peerField(d.Address), zap.Stringer("key_type", d.KeyType))
			continue
		}

		k := KeyConfig{
			Peer:       d.Address,
			Key:        bytes.Clone(d.Key),
			Index:      d.KeyID,
			Type:       d.KeyType,
			RSC:        d.RSC,
			CipherOUI:  d.CipherSuiteOUI,
			CipherType: d.CipherSuiteType,
		}
		if err := b.dev.SetKey(k); err != nil {
			b.log.Warn("failed to install key", peerField(c.addr), zap.Error(err))
			continue
		}
		c.key = &k

		if !c.portOpen {
			c.portOpen = true
			b.log.Info("controlled port open", peerField(c.addr))
		}
	}
}

// protected reports whether frames to c carry the protected frame bit. Only
// a protected BSS with c's port open has keys to encrypt with.
func (b *Bss) protected(c *remoteClient) bool {
	return b.cfg.Protected && c.portOpen
}

// flush sends every frame buffered for c. All but the last carry the more
// data bit.
func (b *Bss) flush(c *remoteClient) {
	fs := c.pending.drain()
	b.buffered -= len(fs)
	for i, p := range fs {
		_ = b.sendData(c.addr, p.src, p.etherType, p.payload, b.protected(c), i < len(fs)-1, TxData)
	}
}

// disassociate returns c to the unassociated state and releases everything
// tied to its association.
func (b *Bss) disassociate(c *remoteClient) {
	if c.key != nil {
		if err := b.dev.DeleteKey(*c.key); err != nil {
			b.log.Warn("failed to delete key", peerField(c.addr), zap.Error(err))
		}
		c.key = nil
	}
	if c.assoc == associated {
		if err := b.dev.ClearAssoc(c.addr); err != nil {
			b.log.Warn("failed to clear station", peerField(c.addr), zap.Error(err))
		}
		b.aids.release(c.aid)
	}

	b.buffered -= len(c.pending.drain())
	c.aid = 0
	c.assoc = notAssociated
	c.assocPending = false
	c.portOpen = false
	c.power = awake
}

func (b *Bss) remove(c *remoteClient) {
	b.disassociate(c)
	delete(b.clients, c.addr)
}

func (b *Bss) sendAuth(dst mlme.MACAddr, alg layers.Dot11Algorithm, status layers.Dot11Status) {
	buf, err := frame.AuthFrame{
		DA:          dst.HardwareAddr(),
		SA:          b.bssid.HardwareAddr(),
		BSSID:       b.bssid.HardwareAddr(),
		SeqNum:      b.seq.Next(),
		Algorithm:   alg,
		Transaction: 2,
		Status:      status,
	}.Serialize()
	_ = b.transmit(TxAuth, buf, err)
}

func (b *Bss) sendAssocResp(dst mlme.MACAddr, status layers.Dot11Status, aid uint16) {
	buf, err := frame.AssocRespFrame{
		DA:         dst.HardwareAddr(),
		SA:         b.bssid.HardwareAddr(),
		BSSID:      b.bssid.HardwareAddr(),
		SeqNum:     b.seq.Next(),
		Capability: b.cfg.Capability(),
		Status:     status,
		AID:        aid,
	}.Serialize()
	_ = b.transmit(TxAssocResp, buf, err)
}

func (b *Bss) sendAddBA(dst mlme.MACAddr) {
	token := b.token
	b.token++

	buf, err := frame.AddBAReqFrame{
		DA:          dst.HardwareAddr(),
		SA:          b.bssid.HardwareAddr(),
		BSSID:       b.bssid.HardwareAddr(),
		SeqNum:      b.seq.Next(),
		DialogToken: token,
	}.Serialize()
	_ = b.transmit(TxAddBA, buf, err)
}

func (b *Bss) sendDeauth(dst mlme.MACAddr, reason layers.Dot11Reason) {
	buf, err := frame.DeauthFrame{
		DA:     dst.HardwareAddr(),
		SA:     b.bssid.HardwareAddr(),
		BSSID:  b.bssid.HardwareAddr(),
		SeqNum: b.seq.Next(),
		Reason: reason,
	}.Serialize()
	_ = b.transmit(TxDeauth, buf, err)
}

// sendData sends an MSDU from the DS to dst.
func (b *Bss) sendData(dst, src mlme.MACAddr, et layers.EthernetType, payload []byte, protected, moreData bool, kind string) error {
	flags := layers.Dot11FlagsFromDS
	if protected {
		flags |= layers.Dot11FlagsWEP
	}
	if moreData {
		flags |= layers.Dot11FlagsMD
	}

	buf, err := frame.DataFrame{
		Flags:     flags,
		Addr1:     dst.HardwareAddr(),
		Addr2:     b.bssid.HardwareAddr(),
		Addr3:     src.HardwareAddr(),
		SeqNum:    b.seq.Next(),
		EtherType: et,
		Payload:   payload,
	}.Serialize()
	return b.transmit(kind, buf, err)
}

// transmit hands an encoded frame to the device. encErr is the error, if
// any, from encoding buf.
func (b *Bss) transmit(kind string, buf []byte, encErr error) error {
	if encErr != nil {
		b.log.Error("failed to encode frame", zap.String("kind", kind), zap.Error(encErr))
		b.rec.FrameDropped(DropTxFailed)
		return encErr
	}
	if err := b.dev.SendWlanFrame(buf); err != nil {
		b.log.Warn("failed to send frame", zap.String("kind", kind), zap.Error(err))
		b.rec.FrameDropped(DropTxFailed)
		return err
	}
	b.rec.FrameTransmitted(kind)
	return nil
}

func (b *Bss) sendMessage(m mlme.Message) {
	if err := b.dev.SendServiceMessage(m); err != nil {
		b.log.Warn("failed to send service message",
			zap.String("method", string(m.Method())), zap.Error(err))
	}
}

func (b *Bss) drop(reason string, fields ...zap.Field) {
	b.rec.FrameDropped(reason)
	b.log.Debug("dropped", append(fields, zap.String("reason", reason))...)
}

func (b *Bss) updateGauges() {
	var authd, assocd, open int
	for _, c := range b.clients {
		if c.auth == authenticated {
			authd++
		}
		if c.assoc == associated {
			assocd++
		}
		if c.portOpen {
			open++
		}
	}
	b.rec.SetClients(StateAuthenticated, authd)
	b.rec.SetClients(StateAssociated, assocd)
	b.rec.SetClients(StatePortOpen, open)
	b.rec.SetBuffered(b.buffered)
}

func peerField(a mlme.MACAddr) zap.Field { return zap.Stringer("peer", a) }
