package ap

import (
	"github.com/tomiamao/apmlme/frame"
	"github.com/tomiamao/apmlme/mlme"
)

// A Device is the set of collaborators a Bss transmits through. Sends are
// fire-and-forget: errors are logged and counted, never retried.
type Device interface {
	// SendWlanFrame transmits a complete 802.11 frame, FCS included.
	SendWlanFrame(b []byte) error
	// SendEthernetFrame delivers an Ethernet II frame to the local network.
	SendEthernetFrame(b []byte) error
	// SendServiceMessage delivers an indication or confirmation to the SME.
	SendServiceMessage(m mlme.Message) error

	// ConfigureAssoc programs an associated station into the device.
	ConfigureAssoc(ctx AssocContext) error
	// ClearAssoc removes a station from the device.
	ClearAssoc(addr mlme.MACAddr) error
	// SetKey installs key material.
	SetKey(k KeyConfig) error
	// DeleteKey removes key material installed with SetKey.
	DeleteKey(k KeyConfig) error
}

// A Beaconer schedules beacon transmission for a started BSS.
type Beaconer interface {
	Arm(cfg Config) error
	Disarm() error
}

// A Recorder observes dispatcher activity. It must be safe to call from the
// goroutine running the Bss.
type Recorder interface {
	FrameDropped(reason string)
	FrameTransmitted(kind string)
	SetClients(state string, n int)
	SetBuffered(n int)
}

// Config describes a started BSS. It is immutable for the session.
type Config struct {
	BSSID        mlme.MACAddr
	SSID         string
	Protected    bool
	BeaconPeriod uint16
	DTIMPeriod   uint8
	Channel      uint8
	// RSNE is advertised in beacons of a protected BSS.
	RSNE []byte
}

// Capability returns the capability information advertised for the BSS.
func (c Config) Capability() uint16 {
	capInfo := frame.CapabilityESS | frame.CapabilityShortSlotTime
	if c.Protected {
		capInfo |= frame.CapabilityPrivacy
	}
	return capInfo
}

// AssocContext describes a station that completed association.
type AssocContext struct {
	Addr           mlme.MACAddr
	AID            uint16
	ListenInterval uint16
	Capability     uint16
	// PortOpen is true when the station may pass data immediately.
	PortOpen bool
}

// KeyConfig is key material installed for a peer or for the group.
type KeyConfig struct {
	Peer       mlme.MACAddr
	Key        []byte
	Index      uint16
	Type       mlme.KeyType
	RSC        uint64
	CipherOUI  [3]byte
	CipherType uint8
}

type nopRecorder struct{}

func (nopRecorder) FrameDropped(string)     {}
func (nopRecorder) FrameTransmitted(string) {}
func (nopRecorder) SetClients(string, int)  {}
func (nopRecorder) SetBuffered(int)         {}
