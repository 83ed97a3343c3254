package nl80211

import (
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// injectRate is the 1Mbps TX rate requested for injected frames, in units
// of 500kbps.
const injectRate layers.RadioTapRate = 2

var errBadFCS = errors.New("radiotap: frame failed FCS check")

// encodeRadiotap prepends a radiotap header to mpdu, which must end with an
// FCS.
func encodeRadiotap(mpdu []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&layers.RadioTap{
			Present: layers.RadioTapPresentFlags | layers.RadioTapPresentRate,
			Flags:   layers.RadioTapFlagsFCS,
			Rate:    injectRate,
		},
		gopacket.Payload(mpdu),
	)
	if err != nil {
		return nil, fmt.Errorf("serialize radiotap: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRadiotap strips the radiotap header from a captured frame and
// returns the MPDU with an FCS, computing one when the driver omitted it.
func decodeRadiotap(b []byte) ([]byte, error) {
	var rt layers.RadioTap
	if err := rt.DecodeFromBytes(b, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("decode radiotap: %w", err)
	}
	if rt.Flags.BadFCS() {
		return nil, errBadFCS
	}
	return rt.Payload, nil
}

// isDataFrame reports whether mpdu is an 802.11 data frame.
func isDataFrame(mpdu []byte) bool {
	return len(mpdu) > 0 && layers.Dot11Type(mpdu[0]>>2).MainType() == layers.Dot11TypeData
}
