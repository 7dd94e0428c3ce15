/*
NAME
  metadata.go

DESCRIPTION
  metadata.go builds and parses the METADATA record: the delimited inner
  form carrying the file's name, size, total baseN symbol length, and SHA1,
  sealed with an ASCII-sum checksum.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package metadata implements the pre-metadata and metadata records: their
// delimited wire forms, checksum sealing, and the five redundant encodings
// (and validation cascade) that let a decoder recover them after lossy
// re-encoding has corrupted some of them.
package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/coldvault/boxvid/boxerr"
)

// Protocol delimiters separating a record's fields on the wire.
const (
	MainDelimiter = "|::-::|"
	SubDelimiter  = "|:-:|"
)

// Record holds the fields carried by one metadata record.
type Record struct {
	Name             string
	Size             int64
	TotalBaseNLength int64
	SHA1Hex          string
}

// Checksum is the ASCII-sum-mod-256 seal over a record's inner form,
// excluding the "|CHECKSUM:<c>|" tail.
func Checksum(inner string) byte {
	var sum int
	for _, c := range inner {
		sum += int(c)
	}
	return byte(sum % 256)
}

// inner renders the delimited inner form, without the checksum tail.
func (r Record) inner() string {
	return fmt.Sprintf("%sMETADATA%s%s%s%d%s%d%s%s%s",
		MainDelimiter,
		SubDelimiter, r.Name,
		SubDelimiter, r.Size,
		SubDelimiter, r.TotalBaseNLength,
		SubDelimiter, r.SHA1Hex,
		MainDelimiter)
}

// Copy renders one full, checksum-sealed copy of r: the unit that each of
// the five metadata encodings operates on.
func (r Record) Copy() string {
	inner := r.inner()
	return fmt.Sprintf("%s|CHECKSUM:%d|", inner, Checksum(inner))
}

// parseCopy validates and parses one full copy (inner form + checksum
// tail) produced by Copy, as the final step of every cascade candidate.
func parseCopy(copy string) (Record, error) {
	const op = "metadata.parseCopy"
	idx := strings.LastIndex(copy, "|CHECKSUM:")
	if idx < 0 || !strings.HasSuffix(copy, "|") {
		return Record{}, boxerr.New(boxerr.Protocol, op, errors.New("missing checksum tail"))
	}
	inner := copy[:idx]
	tail := copy[idx+len("|CHECKSUM:") : len(copy)-1]
	wantSum, err := strconv.Atoi(tail)
	if err != nil {
		return Record{}, boxerr.New(boxerr.Protocol, op, errors.Wrap(err, "malformed checksum tail"))
	}
	if got := int(Checksum(inner)); got != wantSum {
		return Record{}, boxerr.New(boxerr.Protocol, op, fmt.Errorf("checksum mismatch: got %d, want %d", got, wantSum))
	}

	if !strings.HasPrefix(inner, MainDelimiter+"METADATA"+SubDelimiter) || !strings.HasSuffix(inner, MainDelimiter) {
		return Record{}, boxerr.New(boxerr.Protocol, op, errors.New("malformed metadata inner form"))
	}
	body := strings.TrimPrefix(inner, MainDelimiter+"METADATA"+SubDelimiter)
	body = strings.TrimSuffix(body, MainDelimiter)
	fields := strings.Split(body, SubDelimiter)
	if len(fields) != 4 {
		return Record{}, boxerr.New(boxerr.Protocol, op, fmt.Errorf("expected 4 fields, got %d", len(fields)))
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, boxerr.New(boxerr.Protocol, op, errors.Wrap(err, "malformed size field"))
	}
	total, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Record{}, boxerr.New(boxerr.Protocol, op, errors.Wrap(err, "malformed total_baseN_length field"))
	}
	return Record{Name: fields[0], Size: size, TotalBaseNLength: total, SHA1Hex: fields[3]}, nil
}
