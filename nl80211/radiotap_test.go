package nl80211

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tomiamao/apmlme/frame"
)

// A null data frame from 94:3c:49:49:9f:2d to the test BSS.
var testMPDU = []byte{
	0x48, 0x01, 0x00, 0x00,
	0xb7, 0xcd, 0x3f, 0xb0, 0x93, 0x01,
	0x94, 0x3c, 0x49, 0x49, 0x9f, 0x2d,
	0xb7, 0xcd, 0x3f, 0xb0, 0x93, 0x01,
	0x10, 0x00,
}

func TestEncodeRadiotap(t *testing.T) {
	mpdu := frame.AppendFCS(append([]byte(nil), testMPDU...))

	got, err := encodeRadiotap(mpdu)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	want := append([]byte{
		// Version, pad, length 10, present: flags and rate.
		0x00, 0x00, 0x0a, 0x00, 0x06, 0x00, 0x00, 0x00,
		// Flags: FCS at end, rate: 1Mbps.
		0x10, 0x02,
	}, mpdu...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected radiotap frame (-want +got):\n%s", diff)
	}
}

func TestDecodeRadiotap(t *testing.T) {
	mpdu := frame.AppendFCS(append([]byte(nil), testMPDU...))

	tests := []struct {
		name  string
		flags byte
		body  []byte
		want  []byte
		err   error
	}{
		{
			name:  "FCS present",
			flags: 0x10,
			body:  mpdu,
			want:  mpdu,
		},
		{
			name: "FCS computed",
			body: testMPDU,
			want: mpdu,
		},
		{
			name:  "bad FCS",
			flags: 0x10 | 0x40,
			body:  mpdu,
			err:   errBadFCS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := append([]byte{0x00, 0x00, 0x09, 0x00, 0x02, 0x00, 0x00, 0x00, tt.flags}, tt.body...)

			got, err := decodeRadiotap(b)
			if !errors.Is(err, tt.err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected MPDU (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsDataFrame(t *testing.T) {
	if !isDataFrame(testMPDU) {
		t.Fatal("null data frame not recognized as data")
	}
	if isDataFrame([]byte{0x80, 0x00}) {
		t.Fatal("beacon recognized as data")
	}
	if isDataFrame(nil) {
		t.Fatal("empty buffer recognized as data")
	}
}
