/*
NAME
  calibrate.go

DESCRIPTION
  calibrate.go provides a diagnostic that samples a real carrier video
  against a candidate encoding map: it paints one frame with every symbol,
  round-trips it through the same lossy codec Segmenter writes segments
  with, reads the result back, and reports how far each symbol's color
  actually drifted. This is meant to help an operator pick
  color_threshold_percent before committing to a full encode. Not part of
  the wire protocol.

AUTHORS
  Russell Stanley <russell@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package calibrate measures how much an encoding map's colors drift once
// they've been painted onto a carrier frame and pushed through a real
// video encode/decode round trip, recommending a color_threshold_percent
// that should survive it.
package calibrate

import (
	"fmt"
	"math"
	"os"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/carrier"
	"github.com/coldvault/boxvid/colormap"
	"github.com/coldvault/boxvid/frame"
	"github.com/coldvault/boxvid/segment"
)

// Margin reports, for one symbol, how its observed color behaved after a
// real encode/decode round trip: how close it came to another symbol's
// target color (the thing that actually causes misclassification), and
// how far it drifted from its own.
type Margin struct {
	Symbol       byte
	MeanDistance float64 // mean distance from the observed color to the nearest OTHER symbol's target color.
	StdDev       float64
	OwnDrift     float64 // mean distance from the observed color to its own target color.
}

// Run reads one frame from carrierPath, paints every symbol of em across
// it per geo, writes that single frame through segment.Codec (the same
// codec a real encode uses), reads it back, and measures each symbol's
// drift. It recommends a color_threshold_percent that keeps the observed
// colors from crossing into a neighboring symbol's territory.
func Run(log logging.Logger, carrierPath string, em *colormap.Map, geo *frame.Geometry, fps float64) (margins []Margin, suggestedThresholdPercent float64, err error) {
	const op = "calibrate.Run"

	symbols := em.Symbols()
	if len(symbols) < 2 {
		return nil, 100, nil
	}

	cr := carrier.NewReader(log, carrierPath, 0, 1)
	if err := cr.Open(); err != nil {
		return nil, 0, err
	}
	defer cr.Close()

	src := gocv.NewMat()
	defer src.Close()
	ok, err := cr.Next(&src)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, boxerr.New(boxerr.IO, op, fmt.Errorf("carrier %q has no frames to calibrate against", carrierPath))
	}

	seq := make([]byte, geo.Capacity)
	for i := range seq {
		seq[i] = symbols[i%len(symbols)]
	}

	painted, err := frame.Paint(src, geo, em, seq)
	if err != nil {
		return nil, 0, err
	}
	defer painted.Close()

	observed, err := roundTripThroughCodec(painted, geo.FrameWidth, geo.FrameHeight, fps)
	if err != nil {
		return nil, 0, err
	}
	defer observed.Close()

	colors := frame.SampleBlocks(observed, geo, geo.Capacity)

	ownDrift := make(map[byte][]float64, len(symbols))
	nearestOther := make(map[byte][]float64, len(symbols))
	for i, c := range colors {
		sym := seq[i]
		target, _ := em.Color(sym)
		ownDrift[sym] = append(ownDrift[sym], distance(c, target))

		best := -1.0
		for _, other := range symbols {
			if other == sym {
				continue
			}
			otherTarget, _ := em.Color(other)
			if d := distance(c, otherTarget); best < 0 || d < best {
				best = d
			}
		}
		nearestOther[sym] = append(nearestOther[sym], best)
	}

	minMeanSeparation := -1.0
	for _, sym := range symbols {
		dists := nearestOther[sym]
		mean := stat.Mean(dists, nil)
		margins = append(margins, Margin{
			Symbol:       sym,
			MeanDistance: mean,
			StdDev:       stat.StdDev(dists, nil),
			OwnDrift:     stat.Mean(ownDrift[sym], nil),
		})
		if minMeanSeparation < 0 || mean < minMeanSeparation {
			minMeanSeparation = mean
		}
	}

	// A band of +/-T on each channel starts to risk overlap once 2T
	// approaches the smallest observed gap between a symbol's drifted
	// color and its nearest neighbor's target.
	safeT := minMeanSeparation / 2.1
	suggestedThresholdPercent = (safeT / 255.0) * 100.0
	if suggestedThresholdPercent < 0 {
		suggestedThresholdPercent = 0
	}
	if suggestedThresholdPercent > 100 {
		suggestedThresholdPercent = 100
	}
	return margins, suggestedThresholdPercent, nil
}

func distance(a, b colormap.Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// roundTripThroughCodec writes mat as a single-frame video using
// segment.Codec, the fourcc Segmenter writes real segments with, then
// reads it straight back. This is what exercises actual lossy-compression
// drift instead of assuming painted pixels survive untouched.
func roundTripThroughCodec(mat gocv.Mat, w, h int, fps float64) (gocv.Mat, error) {
	const op = "calibrate.roundTripThroughCodec"

	tmp, err := os.CreateTemp("", "boxvid-calibrate-*"+segment.Ext)
	if err != nil {
		return gocv.NewMat(), boxerr.New(boxerr.IO, op, err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	writer, err := gocv.VideoWriterFile(path, segment.Codec, fps, w, h, true)
	if err != nil {
		return gocv.NewMat(), boxerr.New(boxerr.IO, op, fmt.Errorf("opening calibration probe %q: %w", path, err))
	}
	writer.Write(mat)
	if err := writer.Close(); err != nil {
		return gocv.NewMat(), boxerr.New(boxerr.IO, op, fmt.Errorf("closing calibration probe %q: %w", path, err))
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return gocv.NewMat(), boxerr.New(boxerr.IO, op, fmt.Errorf("reopening calibration probe %q: %w", path, err))
	}
	defer vc.Close()

	observed := gocv.NewMat()
	if !vc.Read(&observed) || observed.Empty() {
		observed.Close()
		return gocv.NewMat(), boxerr.New(boxerr.IO, op, fmt.Errorf("calibration probe %q produced no readable frame", path))
	}
	return observed, nil
}
