package frame

import "testing"

func TestNewGeometryBasic(t *testing.T) {
	g, err := NewGeometry(DataContent, 100, 100, 2, 3, 5, true)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	wantUsable := 100 - 2*(2+3)
	if g.UsableW != wantUsable || g.UsableH != wantUsable {
		t.Fatalf("usable = %dx%d, want %dx%d", g.UsableW, g.UsableH, wantUsable, wantUsable)
	}
	if g.NX != wantUsable/5 || g.NY != wantUsable/5 {
		t.Fatalf("grid = %dx%d, want %dx%d", g.NX, g.NY, wantUsable/5, wantUsable/5)
	}
	if g.Capacity != g.NX*g.NY {
		t.Errorf("capacity = %d, want %d", g.Capacity, g.NX*g.NY)
	}
}

func TestNewGeometryFloorsToMultipleOf8(t *testing.T) {
	g, err := NewGeometry(DataContent, 103, 103, 0, 0, 1, false)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	if g.Capacity%8 != 0 {
		t.Errorf("capacity %d is not a multiple of 8", g.Capacity)
	}
}

func TestNewGeometryRejectsBadBoxStep(t *testing.T) {
	if _, err := NewGeometry(DataContent, 100, 100, 0, 0, 0, true); err == nil {
		t.Error("expected error for box_step 0")
	}
	if _, err := NewGeometry(DataContent, 100, 100, 0, 0, 51, true); err == nil {
		t.Error("expected error for box_step 51")
	}
}

func TestNewGeometryRejectsOversizedBorder(t *testing.T) {
	if _, err := NewGeometry(DataContent, 10, 10, 6, 0, 1, true); err == nil {
		t.Error("expected error when margin+padding leaves no usable area")
	}
}

func TestContentTypeString(t *testing.T) {
	cases := map[ContentType]string{
		DataContent: "DATACONTENT",
		Metadata:    "METADATA",
		PreMetadata: "PREMETADATA",
	}
	for ct, want := range cases {
		if got := ct.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ct, got, want)
		}
	}
}
