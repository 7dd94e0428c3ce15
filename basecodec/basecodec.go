/*
NAME
  basecodec.go

DESCRIPTION
  basecodec converts between raw bytes and baseN symbol strings over one of
  the supported alphabets {2,4,8,10,16,64}. It is length-preserving and
  stateless at the byte<->symbol-group level; Encoder and Decoder in this
  package add the streaming, frame-boundary-crossing behavior on top.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package basecodec implements the baseN byte<->symbol conversions used to
// carry a file's bytes as a stream of encoding-map symbols.
package basecodec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/coldvault/boxvid/boxerr"
)

// group describes one base's byte<->symbol group conversion.
type group struct {
	base            int
	groupBytes      int // raw bytes per group (3 for base64, 1 otherwise).
	symbolsPerGroup int // symbols produced per full group.
	encode          func([]byte) string
	decode          func(string) ([]byte, error)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func fixedWidthEncode(base, width int) func([]byte) string {
	return func(b []byte) string {
		return padLeft(strconv.FormatUint(uint64(b[0]), base), width)
	}
}

func fixedWidthDecode(base int) func(string) ([]byte, error) {
	return func(s string) ([]byte, error) {
		v, err := strconv.ParseUint(s, base, 16)
		if err != nil {
			return nil, err
		}
		if v > 255 {
			return nil, fmt.Errorf("decoded value %d exceeds byte range", v)
		}
		return []byte{byte(v)}, nil
	}
}

func newGroup(base int) (*group, error) {
	switch base {
	case 2:
		return &group{base: 2, groupBytes: 1, symbolsPerGroup: 8, encode: fixedWidthEncode(2, 8), decode: fixedWidthDecode(2)}, nil
	case 4:
		return &group{base: 4, groupBytes: 1, symbolsPerGroup: 4, encode: fixedWidthEncode(4, 4), decode: fixedWidthDecode(4)}, nil
	case 8:
		return &group{base: 8, groupBytes: 1, symbolsPerGroup: 3, encode: fixedWidthEncode(8, 3), decode: fixedWidthDecode(8)}, nil
	case 10:
		return &group{base: 10, groupBytes: 1, symbolsPerGroup: 3, encode: fixedWidthEncode(10, 3), decode: fixedWidthDecode(10)}, nil
	case 16:
		return &group{
			base: 16, groupBytes: 1, symbolsPerGroup: 2,
			encode: func(b []byte) string { return hex.EncodeToString(b) },
			decode: func(s string) ([]byte, error) { return hex.DecodeString(s) },
		}, nil
	case 64:
		return &group{
			base: 64, groupBytes: 3, symbolsPerGroup: 4,
			encode: func(b []byte) string { return base64.StdEncoding.EncodeToString(b) },
			decode: func(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported base %d", base)
	}
}

// Encoder is a stateful streaming byte->symbol converter. Bytes are fed in
// via Feed and accumulate into an internal symbol buffer; Next pulls
// complete or partial chunks suitable for one frame's capacity, and Flush
// drains whatever remains (the final, possibly short, chunk).
type Encoder struct {
	g        *group
	raw      []byte // raw bytes not yet forming a full group (only relevant for base64).
	symbols  strings.Builder
	consumed int // symbols of symbols.String() already taken by Next(); dropped by compact after every Next.
}

// NewEncoder returns an Encoder for the given base.
func NewEncoder(base int) (*Encoder, error) {
	g, err := newGroup(base)
	if err != nil {
		return nil, boxerr.New(boxerr.Config, "basecodec.NewEncoder", err)
	}
	return &Encoder{g: g}, nil
}

// Feed appends raw bytes to the encoder, converting every complete group
// into symbols immediately.
func (e *Encoder) Feed(p []byte) {
	e.raw = append(e.raw, p...)
	for len(e.raw) >= e.g.groupBytes {
		e.symbols.WriteString(e.g.encode(e.raw[:e.g.groupBytes]))
		e.raw = e.raw[e.g.groupBytes:]
	}
}

// Pending reports how many symbols are currently buffered and available to
// be taken by Next or Flush.
func (e *Encoder) Pending() int { return e.symbols.Len() - e.consumed }

// Next returns up to n buffered symbols (fewer if not enough are
// available), and whether any were returned.
func (e *Encoder) Next(n int) (string, bool) {
	all := e.symbols.String()
	avail := all[e.consumed:]
	if len(avail) == 0 {
		return "", false
	}
	if n > len(avail) {
		n = len(avail)
	}
	chunk := avail[:n]
	e.consumed += n
	e.compact()
	return chunk, true
}

// compact rebuilds the internal builder without the symbols already taken
// by Next; Next calls it after every chunk, so the buffer doesn't grow
// unbounded across a long encode.
func (e *Encoder) compact() {
	if e.consumed == 0 {
		return
	}
	all := e.symbols.String()
	remaining := all[e.consumed:]
	e.symbols.Reset()
	e.symbols.WriteString(remaining)
	e.consumed = 0
}

// Flush encodes any final partial group (fewer than groupBytes raw bytes
// left, as happens at end-of-file) and returns everything still buffered.
func (e *Encoder) Flush() string {
	if len(e.raw) > 0 {
		e.symbols.WriteString(e.g.encode(e.raw))
		e.raw = nil
	}
	chunk, _ := e.Next(e.symbols.Len())
	return chunk
}

// Decoder is a stateful streaming symbol->byte converter. Symbols arrive
// frame-aligned via Feed; a carry-over buffer holds the tail of a frame
// whose length wasn't a multiple of the group's symbol width.
type Decoder struct {
	g     *group
	carry string
}

// NewDecoder returns a Decoder for the given base.
func NewDecoder(base int) (*Decoder, error) {
	g, err := newGroup(base)
	if err != nil {
		return nil, boxerr.New(boxerr.Config, "basecodec.NewDecoder", err)
	}
	return &Decoder{g: g}, nil
}

// Feed decodes every complete symbol group in carry+symbols into bytes,
// keeping any trailing partial group as carry for the next Feed call.
func (d *Decoder) Feed(symbols string) ([]byte, error) {
	buf := d.carry + symbols
	n := d.g.symbolsPerGroup
	var out []byte
	i := 0
	for ; i+n <= len(buf); i += n {
		b, err := d.g.decode(buf[i : i+n])
		if err != nil {
			return out, boxerr.New(boxerr.Protocol, "basecodec.Decoder.Feed", fmt.Errorf("malformed chunk %q: %w", buf[i:i+n], err))
		}
		out = append(out, b...)
	}
	d.carry = buf[i:]
	return out, nil
}

// Flush returns an error if a partial, undecodable group remains; a
// well-formed stream always ends on a group boundary.
func (d *Decoder) Flush() error {
	if d.carry != "" {
		return boxerr.New(boxerr.Protocol, "basecodec.Decoder.Flush", fmt.Errorf("trailing undecodable symbols: %q", d.carry))
	}
	return nil
}

// ChunkSize returns the number of symbols that represent one group of
// GroupBytes raw bytes for this base.
func (g *group) ChunkSize() int { return g.symbolsPerGroup }

// ChunkSize exposes the base's symbol group width, e.g. 2 for base16.
func ChunkSize(base int) (int, error) {
	g, err := newGroup(base)
	if err != nil {
		return 0, err
	}
	return g.symbolsPerGroup, nil
}

// SymbolCount returns the exact number of symbols a full (non-streaming)
// encode of numBytes raw bytes produces for base, accounting for base64's
// padded final partial group.
func SymbolCount(base, numBytes int) (int, error) {
	g, err := newGroup(base)
	if err != nil {
		return 0, err
	}
	if numBytes == 0 {
		return 0, nil
	}
	groups := (numBytes + g.groupBytes - 1) / g.groupBytes
	return groups * g.symbolsPerGroup, nil
}
