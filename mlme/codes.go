package mlme

import "fmt"

// AuthenticationType is the authentication algorithm a peer requested.
type AuthenticationType uint8

// Possible AuthenticationType values.
const (
	AuthOpenSystem AuthenticationType = iota
	AuthSharedKey
	AuthFastBSSTransition
	AuthSAE
)

func (t AuthenticationType) String() string {
	switch t {
	case AuthOpenSystem:
		return "open system"
	case AuthSharedKey:
		return "shared key"
	case AuthFastBSSTransition:
		return "fast bss transition"
	case AuthSAE:
		return "sae"
	default:
		return fmt.Sprintf("AuthenticationType(%d)", uint8(t))
	}
}

// AuthenticateResultCode is the SME's decision on an authentication.
type AuthenticateResultCode uint8

// Possible AuthenticateResultCode values.
const (
	AuthenticateSuccess AuthenticateResultCode = iota
	AuthenticateRefused
	AuthenticateAntiCloggingTokenRequired
	AuthenticateFiniteCyclicGroupNotSupported
	AuthenticateRejected
	AuthenticateFailureTimeout
)

func (c AuthenticateResultCode) String() string {
	switch c {
	case AuthenticateSuccess:
		return "success"
	case AuthenticateRefused:
		return "refused"
	case AuthenticateAntiCloggingTokenRequired:
		return "anti-clogging token required"
	case AuthenticateFiniteCyclicGroupNotSupported:
		return "finite cyclic group not supported"
	case AuthenticateRejected:
		return "rejected"
	case AuthenticateFailureTimeout:
		return "failure timeout"
	default:
		return fmt.Sprintf("AuthenticateResultCode(%d)", uint8(c))
	}
}

// AssociateResultCode is the SME's decision on an association.
type AssociateResultCode uint8

// Possible AssociateResultCode values.
const (
	AssociateSuccess AssociateResultCode = iota
	AssociateRefusedReasonUnspecified
	AssociateRefusedNotAuthenticated
	AssociateRefusedCapabilitiesMismatch
	AssociateRefusedExternalReason
	AssociateRefusedApOutOfMemory
	AssociateRefusedBasicRatesMismatch
	AssociateRejectedEmergencyServicesNotSupported
	AssociateRefusedTemporarily
)

func (c AssociateResultCode) String() string {
	switch c {
	case AssociateSuccess:
		return "success"
	case AssociateRefusedReasonUnspecified:
		return "refused: reason unspecified"
	case AssociateRefusedNotAuthenticated:
		return "refused: not authenticated"
	case AssociateRefusedCapabilitiesMismatch:
		return "refused: capabilities mismatch"
	case AssociateRefusedExternalReason:
		return "refused: external reason"
	case AssociateRefusedApOutOfMemory:
		return "refused: ap out of memory"
	case AssociateRefusedBasicRatesMismatch:
		return "refused: basic rates mismatch"
	case AssociateRejectedEmergencyServicesNotSupported:
		return "rejected: emergency services not supported"
	case AssociateRefusedTemporarily:
		return "refused temporarily"
	default:
		return fmt.Sprintf("AssociateResultCode(%d)", uint8(c))
	}
}

// EapolResultCode reports the outcome of an EAPOL transmission.
type EapolResultCode uint8

// Possible EapolResultCode values.
const (
	EapolSuccess EapolResultCode = iota
	EapolTransmissionFailure
)

func (c EapolResultCode) String() string {
	switch c {
	case EapolSuccess:
		return "success"
	case EapolTransmissionFailure:
		return "transmission failure"
	default:
		return fmt.Sprintf("EapolResultCode(%d)", uint8(c))
	}
}

// StartResultCode reports the outcome of a StartRequest.
type StartResultCode uint8

// Possible StartResultCode values.
const (
	StartSuccess StartResultCode = iota
	StartBssAlreadyStartedOrJoined
	StartResetRequiredBeforeStart
	StartNotSupported
	StartInternalError
)

func (c StartResultCode) String() string {
	switch c {
	case StartSuccess:
		return "success"
	case StartBssAlreadyStartedOrJoined:
		return "bss already started or joined"
	case StartResetRequiredBeforeStart:
		return "reset required before start"
	case StartNotSupported:
		return "not supported"
	case StartInternalError:
		return "internal error"
	default:
		return fmt.Sprintf("StartResultCode(%d)", uint8(c))
	}
}

// StopResultCode reports the outcome of a StopRequest.
type StopResultCode uint8

// Possible StopResultCode values.
const (
	StopSuccess StopResultCode = iota
	StopBssAlreadyStopped
	StopInternalError
)

func (c StopResultCode) String() string {
	switch c {
	case StopSuccess:
		return "success"
	case StopBssAlreadyStopped:
		return "bss already stopped"
	case StopInternalError:
		return "internal error"
	default:
		return fmt.Sprintf("StopResultCode(%d)", uint8(c))
	}
}

// KeyType identifies how a key is used.
type KeyType uint8

// Possible KeyType values.
const (
	KeyTypeGroup KeyType = iota
	KeyTypePairwise
	KeyTypePeerKey
	KeyTypeIgtk
)

func (t KeyType) String() string {
	switch t {
	case KeyTypeGroup:
		return "group"
	case KeyTypePairwise:
		return "pairwise"
	case KeyTypePeerKey:
		return "peer key"
	case KeyTypeIgtk:
		return "igtk"
	default:
		return fmt.Sprintf("KeyType(%d)", uint8(t))
	}
}
