/*
NAME
  read.go

DESCRIPTION
  read.go implements the frame reader: sampling each data box of an
  observed frame (center pixel for odd box_step, 2x2 central average for
  even box_step, the lone pixel for box_step==1) and classifying it back to
  a symbol through the encoding map. SampleBlocks exposes the raw,
  unclassified sample for callers (calibration) that need the color
  itself rather than its nearest symbol.

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
	"gocv.io/x/gocv"

	"github.com/coldvault/boxvid/colormap"
)

// Read samples up to max blocks (max <= geo.Capacity) of observed per geo
// and classifies each through em, returning one symbol per block in
// row-major order.
func Read(observed gocv.Mat, geo *Geometry, em *colormap.Map, max int) []byte {
	colors := SampleBlocks(observed, geo, max)
	out := make([]byte, len(colors))
	for i, c := range colors {
		out[i] = em.Classify(c.R, c.G, c.B)
	}
	return out
}

// SampleBlocks returns the raw, unclassified color of up to max blocks
// (max <= geo.Capacity) of observed per geo, in row-major order. Read
// builds on this by classifying each color through an encoding map;
// calibration uses it directly to measure how far a symbol's color has
// drifted before Classify ever sees it.
func SampleBlocks(observed gocv.Mat, geo *Geometry, max int) []colormap.Color {
	if max > geo.Capacity {
		max = geo.Capacity
	}
	out := make([]colormap.Color, max)
	for i := 0; i < max; i++ {
		row := i / geo.NX
		col := i % geo.NX
		y0 := geo.StartY + row*geo.BoxStep
		x0 := geo.StartX + col*geo.BoxStep
		r, g, b := sampleBlock(observed, y0, x0, geo.BoxStep)
		out[i] = colormap.Color{R: r, G: g, B: b}
	}
	return out
}

// sampleBlock returns the (R,G,B) value representing one box_step x
// box_step block whose top-left corner in frame coordinates is (x0,y0).
func sampleBlock(m gocv.Mat, y0, x0, step int) (r, g, b uint8) {
	if step == 1 {
		return pixelRGB(m, y0, x0)
	}
	if step%2 == 1 {
		c := step / 2
		return pixelRGB(m, y0+c, x0+c)
	}
	c := step / 2
	r1, g1, b1 := pixelRGB(m, y0+c-1, x0+c-1)
	r2, g2, b2 := pixelRGB(m, y0+c-1, x0+c)
	r3, g3, b3 := pixelRGB(m, y0+c, x0+c-1)
	r4, g4, b4 := pixelRGB(m, y0+c, x0+c)
	return avg4(r1, r2, r3, r4), avg4(g1, g2, g3, g4), avg4(b1, b2, b3, b4)
}

func avg4(a, b, c, d uint8) uint8 {
	return uint8((int(a) + int(b) + int(c) + int(d)) / 4)
}

func pixelRGB(m gocv.Mat, row, col int) (r, g, b uint8) {
	v := m.GetVecbAt(row, col)
	return v[2], v[1], v[0]
}
