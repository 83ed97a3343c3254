package nl80211

import "github.com/tomiamao/apmlme/ap"

// cipherSuite returns the suite selector nl80211 expects for k's cipher:
// the OUI followed by the suite type.
func cipherSuite(k ap.KeyConfig) uint32 {
	return uint32(k.CipherOUI[0])<<24 |
		uint32(k.CipherOUI[1])<<16 |
		uint32(k.CipherOUI[2])<<8 |
		uint32(k.CipherType)
}
