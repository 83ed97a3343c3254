package nl80211

// FreqToChannel returns the channel of the specified
// frequency (in MHz) for the 2.4GHz and 5GHz ranges.
func FreqToChannel(freq int) int {
	if freq == 2484 {
		return 14
	}
	if freq < 2484 {
		return (freq - 2407) / 5
	}
	return freq/5 - 1000
}

// ChannelToFreq returns the center frequency in MHz of a 2.4GHz or 5GHz
// channel. Channels 1 through 14 are taken to be 2.4GHz.
func ChannelToFreq(channel int) int {
	switch {
	case channel == 14:
		return 2484
	case channel < 14:
		return channel*5 + 2407
	default:
		return (channel + 1000) * 5
	}
}

func is5GHz(channel uint8) bool { return channel > 14 }
