/*
NAME
  producer.go

DESCRIPTION
  producer.go implements the encode-side symbol producer: a streaming
  byte->chunk converter for the data section, and a trivial full-string
  chunker for the metadata and pre-metadata sections (whose complete text
  is known before any frame of theirs is painted, since both are sealed
  only after the section before them has been fully streamed).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"context"
	"crypto/sha1"
	"io"

	"github.com/coldvault/boxvid/basecodec"
)

// teeSymbols forwards every chunk read from in to out unchanged, also
// appending its bytes to w as they pass through (config.Config.Debug's
// raw data-section symbol stream). Write errors are swallowed: the
// debug dump is a diagnostic convenience, never a reason to fail an
// encode.
func teeSymbols(in <-chan string, w io.Writer) <-chan string {
	out := make(chan string, cap(in))
	go func() {
		defer close(out)
		for chunk := range in {
			io.WriteString(w, chunk)
			out <- chunk
		}
	}()
	return out
}

// chunkString splits symbols into capacity-sized pieces; the last piece
// may be shorter.
func chunkString(symbols string, capacity int) []string {
	if capacity <= 0 || symbols == "" {
		return nil
	}
	var out []string
	for i := 0; i < len(symbols); i += capacity {
		end := i + capacity
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[i:end])
	}
	return out
}

// dataStreamResult is what streamDataContent reports once the input file
// has been fully consumed: the invariants metadata needs once sealed.
type dataStreamResult struct {
	size         int64
	totalSymbols int64
	sha1Hex      string
	err          error
}

// streamDataContent reads r in blocks, feeding them to a fresh base
// encoder and emitting capacity-sized chunks on the returned channel as
// soon as enough symbols have accumulated. It closes the channel and
// posts to done once r is exhausted and any final partial group has been
// flushed. Reading stops early if ctx is cancelled.
func streamDataContent(ctx context.Context, r io.Reader, base, capacity int) (<-chan string, <-chan dataStreamResult) {
	out := make(chan string, 4)
	done := make(chan dataStreamResult, 1)

	go func() {
		defer close(out)
		defer close(done)

		enc, err := basecodec.NewEncoder(base)
		if err != nil {
			done <- dataStreamResult{err: err}
			return
		}
		h := sha1.New()
		buf := make([]byte, 64*1024)
		var size, total int64

		for {
			n, rerr := r.Read(buf)
			if n > 0 {
				size += int64(n)
				h.Write(buf[:n])
				enc.Feed(buf[:n])
				for enc.Pending() >= capacity {
					chunk, ok := enc.Next(capacity)
					if !ok {
						break
					}
					total += int64(len(chunk))
					select {
					case out <- chunk:
					case <-ctx.Done():
						done <- dataStreamResult{err: ctx.Err()}
						return
					}
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				done <- dataStreamResult{err: rerr}
				return
			}
		}

		if tail := enc.Flush(); tail != "" {
			total += int64(len(tail))
			// A final partial base64 group can push the tail past capacity.
			for _, chunk := range chunkString(tail, capacity) {
				select {
				case out <- chunk:
				case <-ctx.Done():
					done <- dataStreamResult{err: ctx.Err()}
					return
				}
			}
		}

		done <- dataStreamResult{size: size, totalSymbols: total, sha1Hex: hexSum(h.Sum(nil))}
	}()

	return out, done
}

const hexDigits = "0123456789abcdef"

func hexSum(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
