/*
NAME
  geometry.go

DESCRIPTION
  geometry.go derives the data-region layout for one content type from a
  frame's pixel dimensions and the configured margin/padding/box_step,
  mirroring the ROI math revid/config uses for input/output frame sizing,
  generalised to the three content-type geometries this protocol needs.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame implements the frame codec: painting a symbol chunk into a
// carrier frame's data region, and reading a frame's data region back into
// symbols.
package frame

import (
	"fmt"

	"github.com/coldvault/boxvid/boxerr"
)

// ContentType is one of the three disjoint sections of the video stream.
type ContentType int

const (
	DataContent ContentType = iota
	Metadata
	PreMetadata
)

func (c ContentType) String() string {
	switch c {
	case DataContent:
		return "DATACONTENT"
	case Metadata:
		return "METADATA"
	case PreMetadata:
		return "PREMETADATA"
	default:
		return "UNKNOWN"
	}
}

// Geometry is the derived data-region layout for one content type.
type Geometry struct {
	ContentType ContentType

	FrameWidth, FrameHeight int
	Margin, Padding         int
	BoxStep                 int

	StartX, StartY int // top-left of the data region, in frame coordinates.
	UsableW, UsableH int

	NX, NY int // block grid columns/rows.

	// Capacity is the number of data boxes available per frame, floored to
	// a multiple of 8 when byte-splitting across frames is disallowed.
	Capacity int
}

// NewGeometry derives a Geometry for one content type. boxStep must be in
// [1,50]; margin and padding must be non-negative and leave a positive
// usable area.
func NewGeometry(ct ContentType, frameW, frameH, margin, padding, boxStep int, allowByteSplit bool) (*Geometry, error) {
	const op = "frame.NewGeometry"
	if boxStep < 1 || boxStep > 50 {
		return nil, boxerr.New(boxerr.Config, op, fmt.Errorf("%s: data_box_size_step %d out of range [1,50]", ct, boxStep))
	}
	if margin < 0 || padding < 0 {
		return nil, boxerr.New(boxerr.Config, op, fmt.Errorf("%s: margin/padding must be non-negative", ct))
	}

	border := margin + padding
	usableW := frameW - 2*border
	usableH := frameH - 2*border
	if usableW <= 0 || usableH <= 0 {
		return nil, boxerr.New(boxerr.Config, op, fmt.Errorf("%s: margin+padding %d leaves no usable area in %dx%d frame", ct, border, frameW, frameH))
	}

	nx := usableW / boxStep
	ny := usableH / boxStep
	if nx == 0 || ny == 0 {
		return nil, boxerr.New(boxerr.Config, op, fmt.Errorf("%s: box_step %d too large for usable area %dx%d", ct, boxStep, usableW, usableH))
	}

	capacity := nx * ny
	if !allowByteSplit {
		capacity = (capacity / 8) * 8
		if capacity == 0 {
			return nil, boxerr.New(boxerr.Config, op, fmt.Errorf("%s: box grid %dx%d has no multiple-of-8 capacity with byte splitting disallowed", ct, nx, ny))
		}
	}

	return &Geometry{
		ContentType: ct,
		FrameWidth:  frameW,
		FrameHeight: frameH,
		Margin:      margin,
		Padding:     padding,
		BoxStep:     boxStep,
		StartX:      border,
		StartY:      border,
		UsableW:     usableW,
		UsableH:     usableH,
		NX:          nx,
		NY:          ny,
		Capacity:    capacity,
	}, nil
}
