package fingerprint

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodecRoundtrip(t *testing.T) {
	g := &Grid{Width: 3, Height: 2, Pix: []uint8{0, 1, 2, 253, 254, 255}}
	data, err := g.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got Grid
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if diff := cmp.Diff(g, &got); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodecRejects(t *testing.T) {
	g := &Grid{Width: 2, Height: 2, Pix: []uint8{9, 8, 7, 6}}
	good, err := g.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	corrupt := append([]byte(nil), good...)
	corrupt[headerLen] ^= 0xff

	legacy := append([]byte("PKL4"), good[4:]...)

	tests := map[string][]byte{
		"empty":     nil,
		"truncated": good[:headerLen+2],
		"checksum":  corrupt,
		"magic":     legacy,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var got Grid
			if err := got.UnmarshalBinary(data); !errors.Is(err, ErrIncompatible) {
				t.Errorf("UnmarshalBinary error = %v, want ErrIncompatible", err)
			}
		})
	}
}

func TestMarshalInconsistentGrid(t *testing.T) {
	g := &Grid{Width: 4, Height: 4, Pix: []uint8{1}}
	if _, err := g.MarshalBinary(); err == nil {
		t.Error("MarshalBinary succeeded on a grid with missing pixels")
	}
}
