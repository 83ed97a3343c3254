package ap

import (
	"github.com/tomiamao/apmlme/mlme"
)

type authState int

const (
	unauthenticated authState = iota
	authenticated
)

type assocState int

const (
	notAssociated assocState = iota
	associated
)

type powerState int

const (
	awake powerState = iota
	dozing
)

func (s powerState) String() string {
	if s == dozing {
		return "dozing"
	}
	return "awake"
}

// A remoteClient is the record kept for one peer station.
type remoteClient struct {
	addr mlme.MACAddr

	auth  authState
	assoc assocState
	aid   uint16

	listenInterval uint16
	capability     uint16

	// portOpen gates data frames other than EAPOL.
	portOpen bool
	power    powerState
	pending  psQueue
	key      *KeyConfig

	// Set while an indication awaits the SME's response.
	authPending  bool
	assocPending bool
}

func newRemoteClient(addr mlme.MACAddr) *remoteClient {
	return &remoteClient{addr: addr}
}

func (c *remoteClient) isAssociated() bool {
	return c != nil && c.assoc == associated
}
