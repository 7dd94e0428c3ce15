package frame

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/coldvault/boxvid/colormap"
)

func testMap(t *testing.T) *colormap.Map {
	t.Helper()
	m, err := colormap.FromRaw(map[string]string{
		"0": "#000000",
		"1": "#FFFFFF",
	}, 10)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	return m
}

func TestPaintThenReadRoundTrip(t *testing.T) {
	geo, err := NewGeometry(DataContent, 50, 50, 0, 0, 5, true)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	em := testMap(t)

	carrierBuf := make([]byte, geo.FrameWidth*geo.FrameHeight*3)
	for i := range carrierBuf {
		carrierBuf[i] = 128
	}
	carrier, err := gocv.NewMatFromBytes(geo.FrameHeight, geo.FrameWidth, gocv.MatTypeCV8UC3, carrierBuf)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	defer carrier.Close()

	symbols := make([]byte, geo.Capacity)
	for i := range symbols {
		if i%2 == 0 {
			symbols[i] = '0'
		} else {
			symbols[i] = '1'
		}
	}

	painted, err := Paint(carrier, geo, em, symbols)
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	defer painted.Close()

	got := Read(painted, geo, em, geo.Capacity)
	for i := range symbols {
		if got[i] != symbols[i] {
			t.Fatalf("block %d: got %q, want %q", i, got[i], symbols[i])
		}
	}
}

func TestPaintRejectsOversizedChunk(t *testing.T) {
	geo, err := NewGeometry(DataContent, 50, 50, 0, 0, 5, true)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	em := testMap(t)
	carrier := gocv.NewMatWithSize(geo.FrameHeight, geo.FrameWidth, gocv.MatTypeCV8UC3)
	defer carrier.Close()

	symbols := make([]byte, geo.Capacity+1)
	if _, err := Paint(carrier, geo, em, symbols); err == nil {
		t.Error("expected error for chunk exceeding capacity")
	}
}
