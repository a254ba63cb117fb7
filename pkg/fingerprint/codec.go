package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrIncompatible is returned when stored fingerprint bytes cannot be used.
var ErrIncompatible = errors.New("incompatible fingerprint encoding")

var magic = [4]byte{'F', 'K', 'G', '1'}

// header: magic, width, height. trailer: xxhash64 of header+pixels.
const (
	headerLen  = 4 + 4 + 4
	trailerLen = 8
)

// MarshalBinary encodes the grid for storage.
func (g *Grid) MarshalBinary() ([]byte, error) {
	if len(g.Pix) != g.Width*g.Height {
		return nil, fmt.Errorf("grid %dx%d has %d pixels", g.Width, g.Height, len(g.Pix))
	}
	buf := make([]byte, headerLen, headerLen+len(g.Pix)+trailerLen)
	copy(buf, magic[:])
	binary.BigEndian.PutUint32(buf[4:], uint32(g.Width))
	binary.BigEndian.PutUint32(buf[8:], uint32(g.Height))
	buf = append(buf, g.Pix...)
	return binary.BigEndian.AppendUint64(buf, xxhash.Sum64(buf)), nil
}

// UnmarshalBinary decodes bytes written by MarshalBinary.
func (g *Grid) UnmarshalBinary(data []byte) error {
	if len(data) < headerLen+trailerLen {
		return fmt.Errorf("%w: %d bytes", ErrIncompatible, len(data))
	}
	if [4]byte(data[:4]) != magic {
		return fmt.Errorf("%w: unknown magic %q", ErrIncompatible, data[:4])
	}

	body := data[:len(data)-trailerLen]
	if got, want := xxhash.Sum64(body), binary.BigEndian.Uint64(data[len(body):]); got != want {
		return fmt.Errorf("%w: checksum %016x, want %016x", ErrIncompatible, got, want)
	}

	w := int(binary.BigEndian.Uint32(data[4:]))
	h := int(binary.BigEndian.Uint32(data[8:]))
	pix := body[headerLen:]
	if len(pix) != w*h {
		return fmt.Errorf("%w: %dx%d grid with %d pixels", ErrIncompatible, w, h, len(pix))
	}

	g.Width = w
	g.Height = h
	g.Pix = append([]uint8(nil), pix...)
	return nil
}
