package pipeline

import (
	"testing"

	"github.com/coldvault/boxvid/basecodec"
)

func TestEncodeFullStringRoundTrips(t *testing.T) {
	const base = 64
	text := "|::-::|METADATA|:-:|photo.jpg|:-:|12345|:-:|6789|:-:|deadbeef|::-::||CHECKSUM:42|"

	symbols, err := encodeFullString(base, text)
	if err != nil {
		t.Fatalf("encodeFullString: %v", err)
	}

	dec, err := basecodec.NewDecoder(base)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	got, err := dec.Feed(symbols)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := dec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if string(got) != text {
		t.Fatalf("round-tripped text = %q, want %q", got, text)
	}
}

func TestChanOfStringsYieldsInOrderThenCloses(t *testing.T) {
	items := []string{"a", "b", "c"}
	ch := chanOfStrings(items)

	var got []string
	for s := range ch {
		got = append(got, s)
	}
	if len(got) != len(items) {
		t.Fatalf("got %v, want %v", got, items)
	}
	for i, s := range items {
		if got[i] != s {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], s)
		}
	}
}
