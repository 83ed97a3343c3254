package mlme

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMethod is returned when decoding an envelope whose method has no
// registered message type.
var ErrUnknownMethod = errors.New("mlme: unknown method")

// An Envelope frames a single message on a stream transport.
type Envelope struct {
	Method Method          `json:"method"`
	TxID   uint64          `json:"txid,omitempty"`
	Body   json.RawMessage `json:"body"`
}

var decoders = map[Method]func(json.RawMessage) (Message, error){
	MethodStartRequest:             decode[StartRequest],
	MethodStartConfirm:             decode[StartConfirm],
	MethodStopRequest:              decode[StopRequest],
	MethodStopConfirm:              decode[StopConfirm],
	MethodAuthenticateIndication:   decode[AuthenticateIndication],
	MethodAuthenticateResponse:     decode[AuthenticateResponse],
	MethodAssociateIndication:      decode[AssociateIndication],
	MethodAssociateResponse:        decode[AssociateResponse],
	MethodDeauthenticateRequest:    decode[DeauthenticateRequest],
	MethodDeauthenticateConfirm:    decode[DeauthenticateConfirm],
	MethodDeauthenticateIndication: decode[DeauthenticateIndication],
	MethodDisassociateIndication:   decode[DisassociateIndication],
	MethodEapolRequest:             decode[EapolRequest],
	MethodEapolConfirm:             decode[EapolConfirm],
	MethodEapolIndication:          decode[EapolIndication],
	MethodSetKeysRequest:           decode[SetKeysRequest],
}

func decode[T Message](b json.RawMessage) (Message, error) {
	var m T
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal encodes m in an envelope tagged with txid.
func Marshal(txid uint64, m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Method(), err)
	}
	return json.Marshal(Envelope{
		Method: m.Method(),
		TxID:   txid,
		Body:   body,
	})
}

// Unmarshal decodes an envelope produced by Marshal.
func Unmarshal(b []byte) (uint64, Message, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	dec, ok := decoders[env.Method]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrUnknownMethod, env.Method)
	}
	m, err := dec(env.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("unmarshal %s: %w", env.Method, err)
	}
	return env.TxID, m, nil
}
