package nl80211

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/mlme"
)

var testBSSID = mlme.MustAddr("b7:cd:3f:b0:93:01")

func TestBeaconTemplate(t *testing.T) {
	rsne := []byte{
		0x30, 0x14, 0x01, 0x00,
		0x00, 0x0f, 0xac, 0x04,
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x04,
		0x01, 0x00, 0x00, 0x0f, 0xac, 0x02,
		0x00, 0x00,
	}

	head := []byte{
		// Frame control, duration.
		0x80, 0x00, 0x00, 0x00,
		// DA, SA, BSSID.
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xb7, 0xcd, 0x3f, 0xb0, 0x93, 0x01,
		0xb7, 0xcd, 0x3f, 0xb0, 0x93, 0x01,
		// Sequence control.
		0x00, 0x00,
		// Timestamp.
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	tests := []struct {
		name string
		cfg  ap.Config
		head []byte
		tail []byte
	}{
		{
			name: "open 2.4GHz",
			cfg: ap.Config{
				BSSID:        testBSSID,
				SSID:         "coffee",
				BeaconPeriod: 100,
				DTIMPeriod:   2,
				Channel:      6,
			},
			head: concat(head,
				[]byte{0x64, 0x00, 0x01, 0x04},
				[]byte{0x00, 0x06, 'c', 'o', 'f', 'f', 'e', 'e'},
				[]byte{0x01, 0x08, 0x82, 0x84, 0x8b, 0x96, 0x0c, 0x12, 0x18, 0x24},
				[]byte{0x03, 0x01, 0x06},
			),
			tail: concat(
				[]byte{0x2a, 0x01, 0x04},
				[]byte{0x32, 0x04, 0x30, 0x48, 0x60, 0x6c},
				[]byte{0x7f, 0x08, 0x04, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40},
			),
		},
		{
			name: "protected 5GHz",
			cfg: ap.Config{
				BSSID:        testBSSID,
				SSID:         "tea",
				Protected:    true,
				BeaconPeriod: 200,
				DTIMPeriod:   1,
				Channel:      36,
				RSNE:         rsne,
			},
			head: concat(head,
				[]byte{0xc8, 0x00, 0x11, 0x04},
				[]byte{0x00, 0x03, 't', 'e', 'a'},
				[]byte{0x01, 0x08, 0x8c, 0x12, 0x98, 0x24, 0xb0, 0x48, 0x60, 0x6c},
				[]byte{0x03, 0x01, 0x24},
			),
			tail: concat(
				rsne,
				[]byte{0x7f, 0x08, 0x04, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newBeaconTemplate(tt.cfg)
			if err != nil {
				t.Fatalf("failed to build beacon: %v", err)
			}

			want := beaconTemplate{Head: tt.head, Tail: tt.tail}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected beacon (-want +got):\n%s", diff)
			}
		})
	}
}

func concat(bs ...[]byte) []byte {
	var out []byte
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}
