package metadata

import "testing"

func sampleSpans() PreMetadata {
	return PreMetadata{
		Normal:      EncodingSpan{Frames: 1, SymbolLen: 300},
		Base64:      EncodingSpan{Frames: 1, SymbolLen: 140},
		Rot13:       EncodingSpan{Frames: 1, SymbolLen: 100},
		ReedSolomon: EncodingSpan{Frames: 1, SymbolLen: 200},
		Krs: 50,
		Zfec: EncodingSpan{Frames: 1, SymbolLen: 250},
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	spans := sampleSpans()
	record, err := Build(2, 8, spans)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := Parse(record, 8)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got.TotalSymbols = 0 // compared separately below
	want := spans
	want.TotalSymbols = 0
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBuildLengthMatchesDiscoverLength(t *testing.T) {
	spans := sampleSpans()
	record, err := Build(16, 8, spans)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	total, ok, err := DiscoverLength([]byte(record), 8)
	if err != nil {
		t.Fatalf("DiscoverLength: %v", err)
	}
	if !ok {
		t.Fatal("expected DiscoverLength to find the length field")
	}
	parsed, err := Parse(record, 8)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if total != parsed.TotalSymbols {
		t.Errorf("DiscoverLength total %d != Parse TotalSymbols %d", total, parsed.TotalSymbols)
	}
}

func TestDiscoverLengthNeedsMoreBytes(t *testing.T) {
	_, ok, err := DiscoverLength([]byte("|::-::|12"), 8)
	if err != nil {
		t.Fatalf("DiscoverLength: %v", err)
	}
	if ok {
		t.Error("expected DiscoverLength to report not-yet-found for a short prefix")
	}
}

func TestParseRejectsNonDecimalLength(t *testing.T) {
	bad := MainDelimiter + "abcdefgh" + MainDelimiter + "PREMETADATA" + MainDelimiter
	if _, err := Parse(bad, 8); err == nil {
		t.Error("expected error for non-decimal length field")
	}
}

func TestBuildRejectsOverflowingLength(t *testing.T) {
	spans := sampleSpans()
	if _, err := Build(2, 1, spans); err == nil {
		t.Error("expected error when symbol count doesn't fit length_of_digits_to_represent_size")
	}
}
