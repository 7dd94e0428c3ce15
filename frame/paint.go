/*
NAME
  paint.go

DESCRIPTION
  paint.go implements the frame painter: given a carrier frame and a chunk
  of EM symbols, it fills the margin-preserved, padding-whitened, and
  data-tiled regions of one output frame, the way revid/pipeline.go treats
  an input gocv.Mat as a template it overlays rather than reallocates.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/colormap"
)

var white = gocv.NewScalar(255, 255, 255, 0)

// Paint draws symbols into carrier's data region per geo, preserving
// carrier's margin pixels, whitening the padding ring, and nearest-neighbor
// upscaling a small per-block grid into the data region. The returned Mat
// is a new frame; carrier is not modified.
func Paint(carrier gocv.Mat, geo *Geometry, em *colormap.Map, symbols []byte) (gocv.Mat, error) {
	const op = "frame.Paint"
	if len(symbols) > geo.Capacity {
		return gocv.NewMat(), boxerr.New(boxerr.Internal, op, fmt.Errorf("chunk of %d symbols exceeds capacity %d", len(symbols), geo.Capacity))
	}

	out := carrier.Clone()

	whitenRect := image.Rect(geo.Margin, geo.Margin, geo.FrameWidth-geo.Margin, geo.FrameHeight-geo.Margin)
	whitenROI := out.Region(whitenRect)
	whitenROI.SetTo(white)
	whitenROI.Close()

	small, err := buildBlockGrid(geo, em, symbols)
	if err != nil {
		out.Close()
		return gocv.NewMat(), err
	}
	defer small.Close()

	upscaled := gocv.NewMat()
	defer upscaled.Close()
	gocv.Resize(small, &upscaled, image.Pt(geo.UsableW, geo.UsableH), 0, 0, gocv.InterpolationNearestNeighbor)

	dataRect := image.Rect(geo.StartX, geo.StartY, geo.StartX+geo.UsableW, geo.StartY+geo.UsableH)
	dataROI := out.Region(dataRect)
	upscaled.CopyTo(&dataROI)
	dataROI.Close()

	return out, nil
}

// buildBlockGrid constructs the NY x NX x 3 BGR grid: white, with the first
// len(symbols) cells overwritten with their mapped colors in row-major order.
func buildBlockGrid(geo *Geometry, em *colormap.Map, symbols []byte) (gocv.Mat, error) {
	const op = "frame.Paint"
	buf := make([]byte, geo.NY*geo.NX*3)
	for i := range buf[:] {
		buf[i] = 255
	}
	for i, sym := range symbols {
		c, ok := em.Color(sym)
		if !ok {
			return gocv.NewMat(), boxerr.New(boxerr.Protocol, op, fmt.Errorf("unknown symbol %q: not present in encoding map", sym))
		}
		o := i * 3
		buf[o+0] = c.B
		buf[o+1] = c.G
		buf[o+2] = c.R
	}
	return gocv.NewMatFromBytes(geo.NY, geo.NX, gocv.MatTypeCV8UC3, buf)
}
