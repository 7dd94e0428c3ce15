/*
NAME
  merger.go

DESCRIPTION
  merger.go implements Merger, the "concat demuxer" idiom: a side-channel
  file lists the segments in order; an external tool stream-copies them
  into one container. A background thread deletes each source segment
  once the merger's progress timestamp has passed that segment's
  cumulative duration plus a safety buffer, so merging I/O is never
  blocked on deletion.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package segment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
)

// safetyBuffer is the extra margin past a segment's cumulative duration
// before the merger is willing to delete it.
const safetyBuffer = 10 * time.Second

// mergeTool is the external stream-copy concatenation tool, analogous to
// raspivid/raspistill being invoked rather than reimplemented.
const mergeTool = "ffmpeg"

// progressRE matches ffmpeg's "out_time_ms=<microseconds>" progress line,
// emitted once per line when -progress pipe:1 is set.
var progressRE = regexp.MustCompile(`^out_time_ms=(\d+)$`)

// Merger concatenates a Segmenter's output into one container file.
type Merger struct {
	log logging.Logger
	fps float64
}

// NewMerger returns a Merger. fps is used to convert each segment's frame
// count into a duration for the deletion schedule.
func NewMerger(log logging.Logger, fps float64) *Merger {
	return &Merger{log: log, fps: fps}
}

// Merge concatenates plan's segments, in order, into outPath, and deletes
// each source segment once ffmpeg's reported progress has passed that
// segment's end time plus safetyBuffer. It blocks until the external tool
// exits and the deletion thread has caught up.
func (m *Merger) Merge(ctx context.Context, dir string, plan []MergePlan, outPath string) error {
	const op = "segment.Merger.Merge"
	if len(plan) == 0 {
		return boxerr.New(boxerr.Internal, op, fmt.Errorf("no segments to merge"))
	}

	listPath := filepath.Join(dir, "concat_list.txt")
	f, err := os.Create(listPath)
	if err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("creating concat list: %w", err))
	}
	for _, p := range plan {
		abs, err := filepath.Abs(p.Path)
		if err != nil {
			f.Close()
			return boxerr.New(boxerr.IO, op, fmt.Errorf("resolving %q: %w", p.Path, err))
		}
		fmt.Fprintf(f, "file '%s'\n", abs)
	}
	if err := f.Close(); err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("closing concat list: %w", err))
	}

	cmd := exec.CommandContext(ctx, mergeTool,
		"-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy",
		"-progress", "pipe:1", "-nostats",
		outPath,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("piping %s stdout: %w", mergeTool, err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("piping %s stderr: %w", mergeTool, err))
	}

	if err := cmd.Start(); err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("starting %s: %w", mergeTool, err))
	}

	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			m.log.Debug(mergeTool+" stderr", "line", sc.Text())
		}
	}()

	deadlines := cumulativeDeadlines(plan, m.fps)
	done := make(chan struct{})
	go m.deleteAsProgress(stdout, plan, deadlines, done)
	<-done

	if err := cmd.Wait(); err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("%s exited: %w", mergeTool, err))
	}
	os.Remove(listPath)
	return nil
}

// cumulativeDeadlines returns, for each segment in plan, the progress
// timestamp past which it is safe to delete: its cumulative end-of-segment
// duration plus safetyBuffer.
func cumulativeDeadlines(plan []MergePlan, fps float64) []time.Duration {
	if fps <= 0 {
		fps = 25
	}
	out := make([]time.Duration, len(plan))
	var cum time.Duration
	for i, p := range plan {
		cum += time.Duration(float64(p.Frames)/fps*float64(time.Second))
		out[i] = cum + safetyBuffer
	}
	return out
}

// deleteAsProgress reads ffmpeg's -progress output from r, tracks elapsed
// output time, and deletes plan's segment files one by one as elapsed
// crosses each segment's deadline. It closes done when r reaches EOF,
// after a final sweep that deletes any segment not yet removed (covering
// tools that don't emit progress lines, or finish before the last
// deadline elapses).
func (m *Merger) deleteAsProgress(r io.Reader, plan []MergePlan, deadlines []time.Duration, done chan struct{}) {
	defer close(done)

	var mu sync.Mutex
	deleted := make([]bool, len(plan))
	tryDelete := func(elapsed time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		for i, dl := range deadlines {
			if deleted[i] || elapsed < dl {
				continue
			}
			if err := os.Remove(plan[i].Path); err != nil && !os.IsNotExist(err) {
				m.log.Error("could not delete merged segment", "path", plan[i].Path, "error", err)
			} else {
				m.log.Debug("deleted merged segment", "path", plan[i].Path)
			}
			deleted[i] = true
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		match := progressRE.FindStringSubmatch(sc.Text())
		if match == nil {
			continue
		}
		us, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		tryDelete(time.Duration(us) * time.Microsecond)
	}

	// Final sweep: the merge has finished (or never produced out_time_ms
	// lines); anything still present has earned its deletion regardless
	// of the safety-buffer schedule.
	tryDelete(time.Duration(1<<62) - 1)
}
