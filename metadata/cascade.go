/*
NAME
  cascade.go

DESCRIPTION
  cascade.go implements the five redundant metadata encodings (normal,
  base64, rot13/rot5, Reed-Solomon, zfec) and the ordered validation
  cascade a decoder runs over them until one passes its checksum.

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
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/klauspost/reedsolomon"
	"github.com/pkg/errors"
	"github.com/vivint/infectious"

	"github.com/coldvault/boxvid/boxerr"
)

// Encodings holds every cascade candidate's wire text, in the fixed
// validation order {normal, base64, rot13, reed_solomon, zfec}.
type Encodings struct {
	Normal         string
	Base64         string
	Rot13          string
	ReedSolomon    string
	ReedSolomonKrs int
	Zfec           string
}

// EncodeAll renders all five candidates for one record.
func EncodeAll(r Record) (Encodings, error) {
	text := r.Copy()

	rs, krs, err := encodeReedSolomon(text)
	if err != nil {
		return Encodings{}, boxerr.New(boxerr.Internal, "metadata.EncodeAll", errors.Wrap(err, "reed_solomon encode"))
	}
	zf, err := encodeZfec(text)
	if err != nil {
		return Encodings{}, boxerr.New(boxerr.Internal, "metadata.EncodeAll", errors.Wrap(err, "zfec encode"))
	}

	return Encodings{
		Normal:         text + text + text,
		Base64:         base64.StdEncoding.EncodeToString([]byte(text)),
		Rot13:          rot13Rot5(text),
		ReedSolomon:    rs,
		ReedSolomonKrs: krs,
		Zfec:           zf,
	}, nil
}

// Decode tries each candidate in cascade order and returns the first that
// parses and passes checksum. krs must be the Reed-Solomon parity count
// recovered from pre-metadata. The zfec candidate tries every 3-of-5 share
// combination rather than just the first three, since erasure coding gives
// no signal of its own about which shares are intact; parseCopy's checksum
// is what tells the combinations apart.
func Decode(e Encodings, krs int) (Record, string, error) {
	type candidate struct {
		name   string
		render func() (string, error)
	}
	candidates := []candidate{
		{"normal", func() (string, error) { return decodeNormal(e.Normal) }},
		{"base64", func() (string, error) {
			b, err := base64.StdEncoding.DecodeString(e.Base64)
			return string(b), err
		}},
		{"rot13", func() (string, error) { return rot13Rot5(e.Rot13), nil }},
		{"reed_solomon", func() (string, error) { return decodeReedSolomon(e.ReedSolomon, krs) }},
	}

	var errs []string
	for _, c := range candidates {
		text, err := c.render()
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", c.name, err))
			continue
		}
		rec, err := parseCopy(text)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", c.name, err))
			continue
		}
		return rec, c.name, nil
	}

	texts, err := decodeZfec(e.Zfec)
	if err != nil {
		errs = append(errs, fmt.Sprintf("zfec: %v", err))
		return Record{}, "", boxerr.New(boxerr.Protocol, "metadata.Decode", fmt.Errorf("all metadata encodings failed: %s", errs))
	}
	for _, text := range texts {
		if rec, err := parseCopy(text); err == nil {
			return rec, "zfec", nil
		}
	}
	errs = append(errs, fmt.Sprintf("zfec: none of %d share combinations passed checksum", len(texts)))
	return Record{}, "", boxerr.New(boxerr.Protocol, "metadata.Decode", fmt.Errorf("all metadata encodings failed: %s", errs))
}

// decodeNormal takes the bitwise majority of three equal-length literal
// copies concatenated by EncodeAll's Normal candidate.
func decodeNormal(s string) (string, error) {
	if len(s)%3 != 0 {
		return "", errors.New("normal candidate length not divisible by 3")
	}
	n := len(s) / 3
	a, b, c := s[:n], s[n:2*n], s[2*n:]
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = (a[i] & b[i]) | (a[i] & c[i]) | (b[i] & c[i])
	}
	return string(out), nil
}

// rot13Rot5 rotates letters by 13 and digits by 5; it is its own inverse.
func rot13Rot5(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = 'a' + (c-'a'+13)%26
		case c >= 'A' && c <= 'Z':
			out[i] = 'A' + (c-'A'+13)%26
		case c >= '0' && c <= '9':
			out[i] = '0' + (c-'0'+5)%10
		default:
			out[i] = c
		}
	}
	return string(out)
}

// encodeReedSolomon spreads copy over len(copy) one-byte data shards with
// Krs = min(len(copy), 255) one-byte parity shards, a classic per-symbol
// Reed-Solomon scheme. klauspost/reedsolomon caps total shards at 256
// (vs. the usual RS(255,k) ceiling of 255); Krs is clamped down when
// len(copy) alone already approaches that cap, for unusually long
// metadata copies.
func encodeReedSolomon(text string) (wire string, krs int, err error) {
	data := []byte(text)
	n := len(data)
	krs = n
	if krs > 255 {
		krs = 255
	}
	if n+krs > 256 {
		krs = 256 - n
	}
	if krs < 1 {
		krs = 1
	}

	enc, err := reedsolomon.New(n, krs)
	if err != nil {
		return "", 0, err
	}
	shards := make([][]byte, n+krs)
	for i := 0; i < n; i++ {
		shards[i] = []byte{data[i]}
	}
	for i := n; i < n+krs; i++ {
		shards[i] = make([]byte, 1)
	}
	if err := enc.Encode(shards); err != nil {
		return "", 0, err
	}

	raw := make([]byte, 0, n+krs)
	for _, s := range shards {
		raw = append(raw, s...)
	}
	return base64.StdEncoding.EncodeToString(raw), krs, nil
}

// decodeReedSolomon strips the Krs parity shards added by encodeReedSolomon
// and returns the original copy's data shards.
func decodeReedSolomon(wire string, krs int) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(wire)
	if err != nil {
		return "", err
	}
	if krs <= 0 || krs >= len(raw) {
		return "", fmt.Errorf("invalid reed_solomon krs %d for payload of %d bytes", krs, len(raw))
	}
	n := len(raw) - krs
	return string(raw[:n]), nil
}

// encodeZfec pads copy with spaces to a multiple of 3 bytes, splits it into
// 3 equal blocks, and erasure-codes them into 5 shares via infectious (the
// Vandermonde-matrix code family zfec itself implements), transmitted as
// hex of all 5 shares concatenated in share-number order.
func encodeZfec(text string) (string, error) {
	const k, m = 3, 5
	blockSize := (len(text) + k - 1) / k
	if blockSize == 0 {
		blockSize = 1
	}
	padded := make([]byte, k*blockSize)
	n := copy(padded, text)
	for i := n; i < len(padded); i++ {
		padded[i] = ' '
	}

	fec, err := infectious.NewFEC(k, m)
	if err != nil {
		return "", err
	}
	shares := make([][]byte, m)
	err = fec.Encode(padded, func(s infectious.Share) {
		shares[s.Number] = append([]byte(nil), s.Data...)
	})
	if err != nil {
		return "", err
	}

	var raw []byte
	for _, s := range shares {
		raw = append(raw, s...)
	}
	return hex.EncodeToString(raw), nil
}

// zfecCombinations lists every way to choose k=3 of the m=5 shares, as
// 0-indexed share-number triples.
var zfecCombinations = [][3]int{
	{0, 1, 2}, {0, 1, 3}, {0, 1, 4}, {0, 2, 3}, {0, 2, 4},
	{0, 3, 4}, {1, 2, 3}, {1, 2, 4}, {1, 3, 4}, {2, 3, 4},
}

// decodeZfec reverses encodeZfec, reconstructing the text once per 3-of-5
// share combination (any 3 suffice per the zfec scheme, but erasure
// decoding can't itself tell a corrupted share from an intact one) and
// returning every reconstruction for the caller to validate.
func decodeZfec(wire string) ([]string, error) {
	const k, m = 3, 5
	raw, err := hex.DecodeString(wire)
	if err != nil {
		return nil, err
	}
	if len(raw)%m != 0 {
		return nil, fmt.Errorf("zfec payload length %d not a multiple of %d shares", len(raw), m)
	}
	blockSize := len(raw) / m

	fec, err := infectious.NewFEC(k, m)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, combo := range zfecCombinations {
		shares := make([]infectious.Share, k)
		for i, num := range combo {
			shares[i] = infectious.Share{Number: num, Data: raw[num*blockSize : (num+1)*blockSize]}
		}
		dst := make([]byte, k*blockSize)
		text, err := fec.Decode(dst, shares)
		if err != nil {
			continue
		}
		out = append(out, string(bytes.TrimRight(text, " ")))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no 3-of-5 zfec combination decoded")
	}
	return out, nil
}

