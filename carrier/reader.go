/*
NAME
  reader.go

DESCRIPTION
  reader.go provides Reader, a carrier/container video frame source
  implementing the encode-side seek-skip policy (frame_start, frame_step)
  and the decode-side plain sequential read over a merged container.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package carrier opens the externally-supplied carrier video (encode) or
// the merged container (decode) and yields frames through gocv.
package carrier

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
)

// Reader reads frames from a video file, applying a seek-skip policy: the
// first frameStart frames are discarded, then one frame in every
// frameStep is yielded.
type Reader struct {
	mu         sync.Mutex
	path       string
	frameStart int
	frameStep  int
	log        logging.Logger

	vc      *gocv.VideoCapture
	running bool
}

// NewReader returns a Reader over path. A frameStep below 1 is clamped
// to 1.
func NewReader(log logging.Logger, path string, frameStart, frameStep int) *Reader {
	if frameStep < 1 {
		frameStep = 1
	}
	return &Reader{log: log, path: path, frameStart: frameStart, frameStep: frameStep}
}

// Open opens the underlying video file and skips to frameStart.
func (r *Reader) Open() error {
	const op = "carrier.Reader.Open"
	r.mu.Lock()
	defer r.mu.Unlock()

	vc, err := gocv.VideoCaptureFile(r.path)
	if err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("opening %q: %w", r.path, err))
	}
	r.vc = vc
	r.running = true

	for i := 0; i < r.frameStart; i++ {
		if !r.vc.Grab(1) {
			r.vc.Close()
			r.running = false
			return boxerr.New(boxerr.IO, op, fmt.Errorf("carrier %q shorter than frame_start=%d", r.path, r.frameStart))
		}
	}
	return nil
}

// Next decodes the next logical frame into dst (a pre-allocated,
// reusable Mat), skipping frameStep-1 frames between each logical frame.
// It returns false once the carrier is exhausted.
func (r *Reader) Next(dst *gocv.Mat) (bool, error) {
	const op = "carrier.Reader.Next"
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false, boxerr.New(boxerr.Internal, op, fmt.Errorf("reader not open"))
	}

	for i := 0; i < r.frameStep-1; i++ {
		if !r.vc.Grab(1) {
			return false, nil
		}
	}
	if !r.vc.Read(dst) || dst.Empty() {
		return false, nil
	}
	return true, nil
}

// FrameCount reports the container's total frame count, as reported by the
// underlying video library; this may be approximate for some codecs.
func (r *Reader) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vc == nil {
		return 0
	}
	return int(r.vc.Get(gocv.VideoCaptureFrameCount))
}

// Close releases the underlying video capture.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vc == nil {
		return nil
	}
	r.running = false
	err := r.vc.Close()
	r.vc = nil
	return err
}
