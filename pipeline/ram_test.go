package pipeline

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
)

func TestRamFreeReturnsPositiveValue(t *testing.T) {
	free, err := ramFree()
	if err != nil {
		t.Fatalf("ramFree: %v", err)
	}
	if free == 0 {
		t.Fatalf("ramFree() = 0, want a positive free-memory reading")
	}
}

func TestRamGateReturnsImmediatelyWhenAboveTrigger(t *testing.T) {
	log := logging.New(logging.Debug, &bytes.Buffer{}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ramGate(ctx, log, 1, 1) // any positive free RAM clears a trigger of 1 byte.
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("ramGate did not return promptly when free RAM is above trigger")
	}
}
