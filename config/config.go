/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for boxvid.
package config

import (
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
)

// Content-type array indices. Geometry-related fields are [3]-arrays
// indexed this way, matching frame.ContentType's own ordering.
const (
	Data = 0
	Meta = 1
	Pre  = 2
)

// Config provides parameters relevant to a boxvid encode or decode run. A
// new Config must be passed through Validate before use; default values
// for soft-defaultable fields are defined as consts below.
type Config struct {
	// FrameWidth and FrameHeight are the carrier/output frame's pixel
	// dimensions; the carrier video and any produced segment must match.
	FrameWidth, FrameHeight int

	// Margin is the untouched outer border width (carrier pixels are
	// preserved here); Padding is the always-white ring inside it.
	Margin, Padding int

	// DataBoxSizeStep[c] is the side length, in pixels, of one content
	// type's data box; integer in [1,50].
	DataBoxSizeStep [3]int

	// PickFrameToRead[c] and TotalFramesRepetition[c] are the replica
	// sampled on decode and the number of replicas written on encode, for
	// each content type. 1 <= PickFrameToRead[c] <= TotalFramesRepetition[c].
	PickFrameToRead        [3]int
	TotalFramesRepetition  [3]int

	// AllowByteSplitBetweenFrames controls whether usable_databoxes_per_frame
	// is floored to a multiple of 8.
	AllowByteSplitBetweenFrames bool

	// EncodingMapPath is the path to the EM JSON file.
	EncodingMapPath string

	// ColorThresholdPercent is T in the EM's per-channel tolerance band,
	// 0..100.
	ColorThresholdPercent float64

	// FramesPerContentPartFile bounds how many data-content frames go into
	// one encode-side segment file before a new one is opened. Every
	// written replica counts as one frame, so with
	// TotalFramesRepetition[Data] > 1 a logical frame's replicas can be
	// split across two segment files.
	FramesPerContentPartFile int

	// OutputFPS is the framerate passed to the external video encoder.
	OutputFPS int

	// EncodingSpeed is 1..9, mapped to the external encoder's speed/quality
	// preset (1 = slowest/smallest, 9 = fastest/largest).
	EncodingSpeed int

	// UseSameBGRFrameForRepetition is stored but not read by any code
	// path: the pipeline always writes one painted buffer for all of a
	// logical frame's R[c] replicas, which is pixel-identical to painting
	// each replica separately.
	UseSameBGRFrameForRepetition bool

	// RAMThresholdTriggerBytes/RAMThresholdResumeBytes are the free-RAM
	// backpressure gate bounds.
	RAMThresholdTriggerBytes uint64
	RAMThresholdResumeBytes  uint64

	// LengthOfDigitsToRepresentSize is the zero-padded width of the
	// pre-metadata length field.
	LengthOfDigitsToRepresentSize int

	// DataFolderDecoded is the output directory decoded files are written
	// to.
	DataFolderDecoded string

	// CarrierPath is the externally-supplied carrier video used as an
	// encode template.
	CarrierPath string

	// OutputDir is where encode-side segment files (and the merged
	// container) are written.
	OutputDir string

	// Debug, when true, retains a mismatched-SHA1 decode output instead of
	// deleting it, and makes encode also write the raw symbol stream to
	// disk alongside the video.
	Debug bool

	// Logger holds an implementation of the Logger interface. This must be
	// set for boxvid to work correctly.
	Logger logging.Logger
}

// Validate checks c for the hard configuration errors that must abort
// processing (out-of-range box steps, zero repetition, pick > repeat),
// then soft-defaults everything else via Variables, logging each default
// applied. EM band overlap is not checked here; colormap.Load rejects it
// when the map is loaded. The per-content-type settings are fixed-length
// arrays, so their lengths cannot mismatch.
func (c *Config) Validate() error {
	const op = "config.Validate"

	for ct := 0; ct < 3; ct++ {
		step := c.DataBoxSizeStep[ct]
		if step < 1 || step > 50 {
			return boxerr.New(boxerr.Config, op, fmt.Errorf("data_box_size_step[%d] = %d out of range [1,50]", ct, step))
		}
		repeat := c.TotalFramesRepetition[ct]
		if repeat < 1 {
			return boxerr.New(boxerr.Config, op, fmt.Errorf("total_frames_repetition[%d] = %d must be >= 1", ct, repeat))
		}
		pick := c.PickFrameToRead[ct]
		if pick < 1 || pick > repeat {
			return boxerr.New(boxerr.Config, op, fmt.Errorf("pick_frame_to_read[%d] = %d must be in [1, total_frames_repetition[%d]=%d]", ct, pick, ct, repeat))
		}
	}

	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}

	return nil
}

// Update takes a map of configuration variable names and their corresponding
// string values and sets the matching Config fields.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
