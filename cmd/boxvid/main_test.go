package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/coldvault/boxvid/boxerr"
)

func TestExitCodeMapsEachBoxerrKind(t *testing.T) {
	cases := []struct {
		kind boxerr.Kind
		want int
	}{
		{boxerr.Config, 2},
		{boxerr.IO, 3},
		{boxerr.Protocol, 4},
		{boxerr.Integrity, 5},
		{boxerr.Internal, 6},
	}
	for _, c := range cases {
		err := boxerr.New(c.kind, "cmd.test", errors.New("boom"))
		if got := exitCode(err); got != c.want {
			t.Errorf("exitCode(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestExitCodeDefaultsToOneForUnwrappedError(t *testing.T) {
	if got := exitCode(errors.New("plain error")); got != 1 {
		t.Errorf("exitCode(plain) = %d, want 1", got)
	}
}

func TestExitCodeUnwrapsWrappedBoxerr(t *testing.T) {
	inner := boxerr.New(boxerr.Integrity, "pipeline.Decode", errors.New("sha1 mismatch"))
	wrapped := errors.New("decode: " + inner.Error())
	if got := exitCode(wrapped); got != 1 {
		t.Errorf("exitCode on a re-stringified error should not recover Kind, got %d want 1", got)
	}

	// errors.As must still find the *boxerr.Error through fmt.Errorf's %w.
	viaWrap := fmt.Errorf("decode: %w", inner)
	if got := exitCode(viaWrap); got != 5 {
		t.Errorf("exitCode(%%w-wrapped Integrity) = %d, want 5", got)
	}
}
