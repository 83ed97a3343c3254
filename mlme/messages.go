// Package mlme defines the messages exchanged between an access point MLME
// and its station management entity (SME), and a JSON envelope for carrying
// them over a stream transport.
package mlme

// A Method names a message type on the wire.
type Method string

// Known methods.
const (
	MethodStartRequest             Method = "StartRequest"
	MethodStartConfirm             Method = "StartConfirm"
	MethodStopRequest              Method = "StopRequest"
	MethodStopConfirm              Method = "StopConfirm"
	MethodAuthenticateIndication   Method = "AuthenticateIndication"
	MethodAuthenticateResponse     Method = "AuthenticateResponse"
	MethodAssociateIndication      Method = "AssociateIndication"
	MethodAssociateResponse        Method = "AssociateResponse"
	MethodDeauthenticateRequest    Method = "DeauthenticateRequest"
	MethodDeauthenticateConfirm    Method = "DeauthenticateConfirm"
	MethodDeauthenticateIndication Method = "DeauthenticateIndication"
	MethodDisassociateIndication   Method = "DisassociateIndication"
	MethodEapolRequest             Method = "EapolRequest"
	MethodEapolConfirm             Method = "EapolConfirm"
	MethodEapolIndication          Method = "EapolIndication"
	MethodSetKeysRequest           Method = "SetKeysRequest"
)

// A Message is any request, response, indication or confirmation.
type Message interface {
	Method() Method
}

// StartRequest asks the MLME to start a BSS.
type StartRequest struct {
	SSID         string `json:"ssid"`
	BeaconPeriod uint16 `json:"beacon_period"`
	DTIMPeriod   uint8  `json:"dtim_period"`
	Channel      uint8  `json:"channel"`
	// RSNE is a complete RSN element. A non-empty RSNE starts a protected BSS.
	RSNE []byte `json:"rsne,omitempty"`
}

// StartConfirm reports the outcome of a StartRequest.
type StartConfirm struct {
	ResultCode StartResultCode `json:"result_code"`
}

// StopRequest asks the MLME to stop the BSS.
type StopRequest struct {
	SSID string `json:"ssid"`
}

// StopConfirm reports the outcome of a StopRequest.
type StopConfirm struct {
	ResultCode StopResultCode `json:"result_code"`
}

// AuthenticateIndication reports a peer's authentication request.
type AuthenticateIndication struct {
	PeerSTAAddress MACAddr            `json:"peer_sta_address"`
	AuthType       AuthenticationType `json:"auth_type"`
}

// AuthenticateResponse carries the SME's authentication decision.
type AuthenticateResponse struct {
	PeerSTAAddress MACAddr                `json:"peer_sta_address"`
	ResultCode     AuthenticateResultCode `json:"result_code"`
}

// AssociateIndication reports a peer's association request.
type AssociateIndication struct {
	PeerSTAAddress MACAddr `json:"peer_sta_address"`
	ListenInterval uint16  `json:"listen_interval"`
	SSID           []byte  `json:"ssid,omitempty"`
	RSNE           []byte  `json:"rsne,omitempty"`
}

// AssociateResponse carries the SME's association decision.
type AssociateResponse struct {
	PeerSTAAddress MACAddr             `json:"peer_sta_address"`
	ResultCode     AssociateResultCode `json:"result_code"`
}

// DeauthenticateRequest asks the MLME to deauthenticate a peer.
type DeauthenticateRequest struct {
	PeerSTAAddress MACAddr `json:"peer_sta_address"`
	ReasonCode     uint16  `json:"reason_code"`
}

// DeauthenticateConfirm acknowledges a DeauthenticateRequest.
type DeauthenticateConfirm struct {
	PeerSTAAddress MACAddr `json:"peer_sta_address"`
}

// DeauthenticateIndication reports that a peer deauthenticated.
type DeauthenticateIndication struct {
	PeerSTAAddress MACAddr `json:"peer_sta_address"`
	ReasonCode     uint16  `json:"reason_code"`
}

// DisassociateIndication reports that a peer disassociated.
type DisassociateIndication struct {
	PeerSTAAddress MACAddr `json:"peer_sta_address"`
	ReasonCode     uint16  `json:"reason_code"`
}

// EapolRequest asks the MLME to send an EAPOL PDU to a peer.
type EapolRequest struct {
	SrcAddr MACAddr `json:"src_addr"`
	DstAddr MACAddr `json:"dst_addr"`
	Data    []byte  `json:"data"`
}

// EapolConfirm reports the outcome of an EapolRequest.
type EapolConfirm struct {
	ResultCode EapolResultCode `json:"result_code"`
}

// EapolIndication carries an EAPOL PDU received from a peer.
type EapolIndication struct {
	SrcAddr MACAddr `json:"src_addr"`
	DstAddr MACAddr `json:"dst_addr"`
	Data    []byte  `json:"data"`
}

// SetKeyDescriptor describes one key to install.
type SetKeyDescriptor struct {
	Key             []byte  `json:"key"`
	KeyID           uint16  `json:"key_id"`
	KeyType         KeyType `json:"key_type"`
	Address         MACAddr `json:"address"`
	RSC             uint64  `json:"rsc"`
	CipherSuiteOUI  [3]byte `json:"cipher_suite_oui"`
	CipherSuiteType uint8   `json:"cipher_suite_type"`
}

// SetKeysRequest asks the MLME to install keys.
type SetKeysRequest struct {
	Keylist []SetKeyDescriptor `json:"keylist"`
}

func (StartRequest) Method() Method             { return MethodStartRequest }
func (StartConfirm) Method() Method             { return MethodStartConfirm }
func (StopRequest) Method() Method              { return MethodStopRequest }
func (StopConfirm) Method() Method              { return MethodStopConfirm }
func (AuthenticateIndication) Method() Method   { return MethodAuthenticateIndication }
func (AuthenticateResponse) Method() Method     { return MethodAuthenticateResponse }
func (AssociateIndication) Method() Method      { return MethodAssociateIndication }
func (AssociateResponse) Method() Method        { return MethodAssociateResponse }
func (DeauthenticateRequest) Method() Method    { return MethodDeauthenticateRequest }
func (DeauthenticateConfirm) Method() Method    { return MethodDeauthenticateConfirm }
func (DeauthenticateIndication) Method() Method { return MethodDeauthenticateIndication }
func (DisassociateIndication) Method() Method   { return MethodDisassociateIndication }
func (EapolRequest) Method() Method             { return MethodEapolRequest }
func (EapolConfirm) Method() Method             { return MethodEapolConfirm }
func (EapolIndication) Method() Method          { return MethodEapolIndication }
func (SetKeysRequest) Method() Method           { return MethodSetKeysRequest }
