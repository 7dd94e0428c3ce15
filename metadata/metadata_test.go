package metadata

import "testing"

func sampleRecord() Record {
	return Record{
		Name:             "tiny.bin",
		Size:             16,
		TotalBaseNLength: 128,
		SHA1Hex:          "b7e23ec29af22b0b4e41da31e868d57226121c84",
	}
}

func TestCopyRoundTrip(t *testing.T) {
	r := sampleRecord()
	got, err := parseCopy(r.Copy())
	if err != nil {
		t.Fatalf("parseCopy: %v", err)
	}
	if got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
}

func TestParseCopyRejectsBadChecksum(t *testing.T) {
	r := sampleRecord()
	bad := r.Copy()
	bad = bad[:len(bad)-2] + "9|" // tamper with the checksum digit
	if _, err := parseCopy(bad); err == nil {
		t.Error("expected checksum mismatch error")
	}
}

func TestChecksumDeterministic(t *testing.T) {
	inner := "|::-::|METADATA|:-:|x|:-:|0|:-:|0|:-:|da39a3ee5e6b4b0d3255bfef95601890afd80709|::-::|"
	a := Checksum(inner)
	b := Checksum(inner)
	if a != b {
		t.Error("checksum is not deterministic")
	}
}

func TestEncodeAllAndDecodeCascade(t *testing.T) {
	r := sampleRecord()
	enc, err := EncodeAll(r)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	for _, tc := range []string{"normal", "base64", "rot13", "reed_solomon", "zfec"} {
		got, via, err := Decode(enc, enc.ReedSolomonKrs)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		_ = tc
		if got != r {
			t.Fatalf("Decode via %s: got %+v, want %+v", via, got, r)
		}
		break // all five candidates are valid; Decode always picks "normal" first.
	}
}

func TestDecodeFallsBackWhenNormalCorrupted(t *testing.T) {
	r := sampleRecord()
	enc, err := EncodeAll(r)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	corrupted := []byte(enc.Normal)
	// Corrupt the same 10 positions in two of the three copies, so the
	// bitwise majority vote cannot restore them.
	n := len(corrupted) / 3
	for i := 0; i < 10 && i < n; i++ {
		corrupted[i] ^= 0xFF
		corrupted[n+i] ^= 0xFF
	}
	enc.Normal = string(corrupted)

	got, via, err := Decode(enc, enc.ReedSolomonKrs)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if via == "normal" {
		t.Error("expected cascade to skip the corrupted normal candidate")
	}
	if got != r {
		t.Fatalf("got %+v, want %+v", got, r)
	}
}

func TestDecodeFailsWhenAllCorrupted(t *testing.T) {
	r := sampleRecord()
	enc, err := EncodeAll(r)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	enc.Normal = "garbage"
	enc.Base64 = "garbage"
	enc.Rot13 = "garbage"
	enc.ReedSolomon = "garbage"
	enc.Zfec = "not hex!!"

	if _, _, err := Decode(enc, enc.ReedSolomonKrs); err == nil {
		t.Error("expected error when every candidate is corrupted")
	}
}

func TestRot13Rot5SelfInverse(t *testing.T) {
	s := "Hello, World! 12345"
	if got := rot13Rot5(rot13Rot5(s)); got != s {
		t.Errorf("rot13Rot5 is not self-inverse: got %q, want %q", got, s)
	}
}
