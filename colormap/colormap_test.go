/*
NAME
  colormap_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package colormap

import (
	"errors"
	"testing"

	"github.com/coldvault/boxvid/boxerr"
)

func TestFromRawRejectsOverlappingBands(t *testing.T) {
	raw := map[string]string{
		"0": "#101010",
		"1": "#202020",
	}
	// At 100% threshold every band spans the full [0,255] range on every
	// channel, so these two colors are guaranteed to overlap on all three.
	_, err := FromRaw(raw, 100)
	if err == nil {
		t.Fatal("expected an error for overlapping bands, got nil")
	}
	var be *boxerr.Error
	if !errors.As(err, &be) {
		t.Fatalf("expected a *boxerr.Error, got %T: %v", err, err)
	}
	if be.Kind != boxerr.Config {
		t.Errorf("got Kind %v, want boxerr.Config", be.Kind)
	}
}

func TestFromRawAcceptsNonOverlappingBands(t *testing.T) {
	raw := map[string]string{
		"0": "#000000",
		"1": "#ffffff",
	}
	if _, err := FromRaw(raw, 1); err != nil {
		t.Fatalf("unexpected error for well-separated bands: %v", err)
	}
}

func TestClassifyFallsBackToNearestColor(t *testing.T) {
	raw := map[string]string{
		"0": "#000000",
		"1": "#ffffff",
	}
	// A narrow 1% threshold (~3 per channel) leaves a wide gap in the
	// middle of the RGB cube that no band covers, forcing the
	// nearest-color fallback path.
	m, err := FromRaw(raw, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := m.Classify(100, 100, 100)
	if want := byte('0'); got != want {
		t.Errorf("Classify(100,100,100) = %q, want %q (nearest to #000000)", got, want)
	}

	got = m.Classify(200, 200, 200)
	if want := byte('1'); got != want {
		t.Errorf("Classify(200,200,200) = %q, want %q (nearest to #ffffff)", got, want)
	}
}

func TestClassifyBandedMatchTakesPriority(t *testing.T) {
	raw := map[string]string{
		"0": "#000000",
		"1": "#ffffff",
	}
	m, err := FromRaw(raw, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Classify(2, 2, 2); got != '0' {
		t.Errorf("Classify(2,2,2) = %q, want '0' (within band)", got)
	}
}
