package nl80211

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/frame"
)

var broadcastAddr = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Rates in units of 500kbps. The high bit marks a basic rate.
var (
	// 1, 2, 5.5 and 11Mbps basic; 6, 9, 12 and 18Mbps optional.
	supportedRates2GHz = []byte{0x82, 0x84, 0x8b, 0x96, 0x0c, 0x12, 0x18, 0x24}
	// 24, 36, 48 and 54Mbps.
	extSupportedRates2GHz = []byte{0x30, 0x48, 0x60, 0x6c}
	// 6, 12 and 24Mbps basic.
	supportedRates5GHz = []byte{0x8c, 0x12, 0x98, 0x24, 0xb0, 0x48, 0x60, 0x6c}
)

const erpBarkerPreambleMode = 0x04

// extCapabilities advertises extended channel switching, BSS transition
// and operating mode notification.
var extCapabilities = []byte{0x04, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40}

// A beaconTemplate is the pair of buffers the kernel places the TIM element
// between when it builds each beacon. Neither carries an FCS.
type beaconTemplate struct {
	Head []byte
	Tail []byte
}

// newBeaconTemplate builds the beacon advertised for cfg.
func newBeaconTemplate(cfg ap.Config) (beaconTemplate, error) {
	bssid := cfg.BSSID.HardwareAddr()

	rates := supportedRates2GHz
	if is5GHz(cfg.Channel) {
		rates = supportedRates5GHz
	}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.Dot11{
			Type:     layers.Dot11TypeMgmtBeacon,
			Address1: broadcastAddr,
			Address2: bssid,
			Address3: bssid,
		},
		&layers.Dot11MgmtBeacon{
			Interval: cfg.BeaconPeriod,
			Flags:    cfg.Capability(),
		},
		informationElement(frame.IESSID, []byte(cfg.SSID)),
		informationElement(frame.IESupportedRates, rates),
		informationElement(frame.IEDSParamSet, []byte{cfg.Channel}),
	)
	if err != nil {
		return beaconTemplate{}, fmt.Errorf("serialize beacon head: %w", err)
	}

	var tail []byte
	if !is5GHz(cfg.Channel) {
		tail = frame.AppendIE(tail, frame.IEERP, []byte{erpBarkerPreambleMode})
		tail = frame.AppendIE(tail, frame.IEExtSupportedRates, extSupportedRates2GHz)
	}
	if cfg.Protected {
		tail = append(tail, cfg.RSNE...)
	}
	tail = frame.AppendIE(tail, frame.IEExtendedCapabilities, extCapabilities)

	return beaconTemplate{
		Head: buf.Bytes(),
		Tail: tail,
	}, nil
}

func informationElement(id uint8, info []byte) *layers.Dot11InformationElement {
	return &layers.Dot11InformationElement{
		ID:   layers.Dot11InformationElementID(id),
		Info: info,
	}
}
