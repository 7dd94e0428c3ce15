package basecodec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func roundTrip(t *testing.T, base int, data []byte, frameCap int) {
	t.Helper()

	enc, err := NewEncoder(base)
	if err != nil {
		t.Fatalf("NewEncoder(%d): %v", base, err)
	}
	dec, err := NewDecoder(base)
	if err != nil {
		t.Fatalf("NewDecoder(%d): %v", base, err)
	}

	enc.Feed(data)

	var out []byte
	for {
		chunk, ok := enc.Next(frameCap)
		if !ok {
			break
		}
		b, err := dec.Feed(chunk)
		if err != nil {
			t.Fatalf("Feed(%q): %v", chunk, err)
		}
		out = append(out, b...)
	}
	if tail := enc.Flush(); tail != "" {
		b, err := dec.Feed(tail)
		if err != nil {
			t.Fatalf("Feed(tail %q): %v", tail, err)
		}
		out = append(out, b...)
	}
	if err := dec.Flush(); err != nil {
		t.Fatalf("Decoder.Flush: %v", err)
	}

	if diff := cmp.Diff(data, out); diff != "" {
		t.Errorf("base %d round trip mismatch (-want +got):\n%s", base, diff)
	}
}

func TestRoundTripAllBases(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	for _, base := range []int{2, 4, 8, 10, 16, 64} {
		for _, frameCap := range []int{1, 3, 7, 1000} {
			roundTrip(t, base, data, frameCap)
		}
	}
}

func TestRoundTripEmpty(t *testing.T) {
	for _, base := range []int{2, 4, 8, 10, 16, 64} {
		roundTrip(t, base, nil, 10)
	}
}

func TestRoundTripSingleByte(t *testing.T) {
	for _, base := range []int{2, 4, 8, 10, 16, 64} {
		roundTrip(t, base, []byte{0xFF}, 10)
	}
}

func TestChunkSize(t *testing.T) {
	cases := map[int]int{2: 8, 4: 4, 8: 3, 10: 3, 16: 2, 64: 4}
	for base, want := range cases {
		got, err := ChunkSize(base)
		if err != nil {
			t.Fatalf("ChunkSize(%d): %v", base, err)
		}
		if got != want {
			t.Errorf("ChunkSize(%d) = %d, want %d", base, got, want)
		}
	}
}

func TestUnsupportedBase(t *testing.T) {
	if _, err := NewEncoder(7); err == nil {
		t.Error("expected error for unsupported base 7")
	}
	if _, err := NewDecoder(7); err == nil {
		t.Error("expected error for unsupported base 7")
	}
}

func TestDecoderRejectsMalformedChunk(t *testing.T) {
	dec, err := NewDecoder(2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.Feed("22222222"); err == nil {
		t.Error("expected decode error for non-binary chunk in base 2")
	}
}

func TestDecoderRejectsTrailingPartialGroup(t *testing.T) {
	dec, err := NewDecoder(16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dec.Feed("a"); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := dec.Flush(); err == nil {
		t.Error("expected Flush error for trailing undecodable symbol")
	}
}

func TestEncoderFeedAcrossCalls(t *testing.T) {
	enc, err := NewEncoder(16)
	if err != nil {
		t.Fatal(err)
	}
	enc.Feed([]byte{0xAB})
	enc.Feed([]byte{0xCD})
	chunk, ok := enc.Next(100)
	if !ok {
		t.Fatal("expected symbols")
	}
	if chunk != "abcd" {
		t.Errorf("got %q, want %q", chunk, "abcd")
	}
}
