/*
NAME
  premetadata.go

DESCRIPTION
  premetadata.go builds and parses the pre-metadata record: the
  self-describing header that tells a decoder how many frames and symbols
  each metadata encoding occupies. It is encoded last, once the metadata
  it describes is known, but the merged container places it first, so a
  decoder reads it before any metadata.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/coldvault/boxvid/basecodec"
	"github.com/coldvault/boxvid/boxerr"
)

// EncodingSpan describes one cascade encoding's footprint in the stream.
type EncodingSpan struct {
	Frames    int
	SymbolLen int
}

// PreMetadata is the fully-resolved pre-metadata record.
type PreMetadata struct {
	Normal      EncodingSpan
	Base64      EncodingSpan
	Rot13       EncodingSpan
	ReedSolomon EncodingSpan
	Krs         int
	Zfec        EncodingSpan

	// TotalSymbols is L: the whole pre-metadata record's own symbol count.
	TotalSymbols int
}

const preMetadataTag = "PREMETADATA"

// Build renders the pre-metadata wire string for base, given
// length_of_digits_to_represent_size and the already-measured spans of
// each metadata encoding. L is computed self-referentially: the record is
// first rendered with an L of lengthDigits zeros, its byte length is
// converted to a symbol count for base, and L is then substituted in.
func Build(base, lengthDigits int, spans PreMetadata) (string, error) {
	const op = "metadata.Build"
	placeholder := strings.Repeat("0", lengthDigits)
	body := renderBody(spans)
	draft := MainDelimiter + placeholder + MainDelimiter + body

	total, err := basecodec.SymbolCount(base, len(draft))
	if err != nil {
		return "", boxerr.New(boxerr.Config, op, err)
	}
	l := strconv.Itoa(total)
	if len(l) > lengthDigits {
		return "", boxerr.New(boxerr.Config, op, fmt.Errorf("pre-metadata symbol count %d does not fit in %d digits", total, lengthDigits))
	}
	l = strings.Repeat("0", lengthDigits-len(l)) + l

	return MainDelimiter + l + MainDelimiter + body, nil
}

func renderBody(s PreMetadata) string {
	field := func(name string, span EncodingSpan, extra ...int) string {
		parts := []string{name, strconv.Itoa(span.Frames)}
		for _, e := range extra {
			parts = append(parts, strconv.Itoa(e))
		}
		parts = append(parts, strconv.Itoa(span.SymbolLen))
		return strings.Join(parts, SubDelimiter)
	}
	fields := []string{
		preMetadataTag,
		field("normal", s.Normal),
		field("base64", s.Base64),
		field("rot13", s.Rot13),
		field("reed_solomon", s.ReedSolomon, s.Krs),
		field("zfec", s.Zfec),
	}
	return strings.Join(fields, SubDelimiter) + MainDelimiter
}

// DiscoverLength inspects the leading bytes of a (partially) decoded
// pre-metadata section and, once enough bytes have arrived to see both
// main delimiters around the length field, returns the total pre-metadata
// symbol count L. ok is false while more bytes are still needed.
func DiscoverLength(buf []byte, lengthDigits int) (total int, ok bool, err error) {
	need := 2*len(MainDelimiter) + lengthDigits
	if len(buf) < need {
		return 0, false, nil
	}
	s := string(buf[:need])
	if !strings.HasPrefix(s, MainDelimiter) {
		return 0, false, boxerr.New(boxerr.Protocol, "metadata.DiscoverLength", errors.New("missing leading main delimiter"))
	}
	lengthField := s[len(MainDelimiter) : len(MainDelimiter)+lengthDigits]
	if !strings.HasSuffix(s, MainDelimiter) {
		return 0, false, boxerr.New(boxerr.Protocol, "metadata.DiscoverLength", errors.New("missing second main delimiter"))
	}
	for _, c := range lengthField {
		if c < '0' || c > '9' {
			return 0, false, boxerr.New(boxerr.Protocol, "metadata.DiscoverLength", fmt.Errorf("length field %q is not pure decimal", lengthField))
		}
	}
	total, err = strconv.Atoi(lengthField)
	if err != nil {
		return 0, false, boxerr.New(boxerr.Protocol, "metadata.DiscoverLength", err)
	}
	return total, true, nil
}

// Parse parses a pre-metadata record produced by Build. It requires the
// length field to be exactly lengthDigits decimal digits, which rejects
// the alternate bit-length-prefix form some drafts of this protocol used:
// that form does not decode as a fixed-width ASCII decimal span.
func Parse(record string, lengthDigits int) (PreMetadata, error) {
	const op = "metadata.Parse"
	if !strings.HasPrefix(record, MainDelimiter) {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, errors.New("missing leading main delimiter"))
	}
	rest := record[len(MainDelimiter):]
	if len(rest) < lengthDigits+len(MainDelimiter) {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, errors.New("record too short for length field"))
	}
	lengthField := rest[:lengthDigits]
	for _, c := range lengthField {
		if c < '0' || c > '9' {
			return PreMetadata{}, boxerr.New(boxerr.Protocol, op, fmt.Errorf("length field %q is not pure decimal", lengthField))
		}
	}
	total, err := strconv.Atoi(lengthField)
	if err != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, errors.Wrap(err, "malformed length field"))
	}
	rest = rest[lengthDigits:]
	if !strings.HasPrefix(rest, MainDelimiter) {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, errors.New("missing second main delimiter"))
	}
	body := rest[len(MainDelimiter):]
	body = strings.TrimSuffix(body, MainDelimiter)

	fields := strings.Split(body, SubDelimiter)
	if len(fields) == 0 || fields[0] != preMetadataTag {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, fmt.Errorf("missing %s tag", preMetadataTag))
	}
	fields = fields[1:]

	readSpan := func(name string, extra int) (EncodingSpan, int, error) {
		if len(fields) < 3+extra || fields[0] != name {
			return EncodingSpan{}, 0, fmt.Errorf("expected %s encoding fields", name)
		}
		frames, err := strconv.Atoi(fields[1])
		if err != nil {
			return EncodingSpan{}, 0, errors.Wrapf(err, "%s frame count", name)
		}
		extraVal := 0
		idx := 2
		if extra > 0 {
			extraVal, err = strconv.Atoi(fields[idx])
			if err != nil {
				return EncodingSpan{}, 0, errors.Wrapf(err, "%s extra field", name)
			}
			idx++
		}
		symLen, err := strconv.Atoi(fields[idx])
		if err != nil {
			return EncodingSpan{}, 0, errors.Wrapf(err, "%s symbol length", name)
		}
		fields = fields[idx+1:]
		return EncodingSpan{Frames: frames, SymbolLen: symLen}, extraVal, nil
	}

	var pm PreMetadata
	var err2 error
	if pm.Normal, _, err2 = readSpan("normal", 0); err2 != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, err2)
	}
	if pm.Base64, _, err2 = readSpan("base64", 0); err2 != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, err2)
	}
	if pm.Rot13, _, err2 = readSpan("rot13", 0); err2 != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, err2)
	}
	var krs int
	if pm.ReedSolomon, krs, err2 = readSpan("reed_solomon", 1); err2 != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, err2)
	}
	pm.Krs = krs
	if pm.Zfec, _, err2 = readSpan("zfec", 0); err2 != nil {
		return PreMetadata{}, boxerr.New(boxerr.Protocol, op, err2)
	}
	pm.TotalSymbols = total
	return pm, nil
}
