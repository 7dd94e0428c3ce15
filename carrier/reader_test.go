package carrier

import (
	"errors"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
)

func TestOpenMissingCarrierReturnsIOError(t *testing.T) {
	r := NewReader((*logging.TestLogger)(t), "/nonexistent/carrier.mp4", 0, 1)
	err := r.Open()
	if err == nil {
		t.Fatal("expected error opening a missing carrier")
	}
	var be *boxerr.Error
	if !errors.As(err, &be) {
		t.Fatalf("expected a *boxerr.Error, got %T: %v", err, err)
	}
	if be.Kind != boxerr.IO {
		t.Errorf("Kind = %v, want IO", be.Kind)
	}
}

func TestNewReaderClampsFrameStep(t *testing.T) {
	r := NewReader((*logging.TestLogger)(t), "whatever.mp4", 5, 0)
	if r.frameStep != 1 {
		t.Errorf("frameStep = %d, want clamped to 1", r.frameStep)
	}
}
