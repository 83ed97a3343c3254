package frame

import "errors"

// Information element IDs used by the access point.
const (
	IESSID                 uint8 = 0
	IESupportedRates       uint8 = 1
	IEDSParamSet           uint8 = 3
	IEERP                  uint8 = 42
	IERSN                  uint8 = 48
	IEExtSupportedRates    uint8 = 50
	IEMobilityDomain       uint8 = 54
	IEExtendedCapabilities uint8 = 127
)

var errInvalidIE = errors.New("invalid 802.11 information element")

// An IE is an 802.11 information element.
type IE struct {
	ID uint8
	// Length field implied by length of data
	Data []byte
}

// Bytes returns the element in wire form: ID, length, data.
func (e IE) Bytes() []byte {
	return AppendIE(nil, e.ID, e.Data)
}

// AppendIE appends a single element to b. Data longer than 255 bytes is
// truncated to fit the length field.
func AppendIE(b []byte, id uint8, data []byte) []byte {
	if len(data) > 255 {
		data = data[:255]
	}
	b = append(b, id, byte(len(data)))
	return append(b, data...)
}

// ParseIEs parses zero or more elements from a frame body.
func ParseIEs(b []byte) ([]IE, error) {
	var ies []IE
	var i int
	for {
		if len(b[i:]) == 0 {
			break
		}
		if len(b[i:]) < 2 {
			return nil, errInvalidIE
		}

		id := b[i]
		i++
		l := int(b[i])
		i++

		if len(b[i:]) < l {
			return nil, errInvalidIE
		}

		ies = append(ies, IE{
			ID:   id,
			Data: b[i : i+l],
		})

		i += l
	}

	return ies, nil
}

// findIE returns the first element with the given ID.
func findIE(ies []IE, id uint8) (IE, bool) {
	for _, e := range ies {
		if e.ID == id {
			return e, true
		}
	}
	return IE{}, false
}
