package segment

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
)

func TestCumulativeDeadlinesAddsSafetyBuffer(t *testing.T) {
	plan := []MergePlan{{Path: "a", Frames: 25}, {Path: "b", Frames: 25}}
	dl := cumulativeDeadlines(plan, 25)
	if dl[0] != time.Second+safetyBuffer {
		t.Errorf("dl[0] = %v, want %v", dl[0], time.Second+safetyBuffer)
	}
	if dl[1] != 2*time.Second+safetyBuffer {
		t.Errorf("dl[1] = %v, want %v", dl[1], 2*time.Second+safetyBuffer)
	}
}

func TestCumulativeDeadlinesDefaultsFPS(t *testing.T) {
	plan := []MergePlan{{Path: "a", Frames: 25}}
	dl := cumulativeDeadlines(plan, 0)
	if dl[0] != time.Second+safetyBuffer {
		t.Errorf("dl[0] = %v with fps=0, want default-fps result %v", dl[0], time.Second+safetyBuffer)
	}
}

func TestDeleteAsProgressRespectsDeadlinesBeforeFinalSweep(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	plan := []MergePlan{{Path: a, Frames: 1}, {Path: b, Frames: 1}}
	deadlines := []time.Duration{0, time.Hour} // a is immediately deletable, b is not.

	m := &Merger{log: (*logging.TestLogger)(t), fps: 25}
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go m.deleteAsProgress(pr, plan, deadlines, done)

	if _, err := pw.Write([]byte("out_time_ms=1000000\n")); err != nil {
		t.Fatal(err)
	}
	// Give the scanner goroutine a moment to process the line before we
	// inspect filesystem state; deleteAsProgress is still blocked on the
	// pipe, so the final sweep has not run yet.
	deadlineA := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(a); os.IsNotExist(err) {
			break
		}
		select {
		case <-deadlineA:
			t.Fatal("expected a to be deleted once its deadline (0) was passed")
		case <-time.After(time.Millisecond):
		}
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("b should not be deleted yet (deadline 1h not reached): %v", err)
	}

	pw.Close()
	<-done
	if _, err := os.Stat(b); !os.IsNotExist(err) {
		t.Errorf("expected b to be deleted by the final sweep once the stream ended, stat err = %v", err)
	}
}
