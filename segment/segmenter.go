/*
NAME
  segmenter.go

DESCRIPTION
  segmenter.go implements the encode-side Segmenter: it owns a
  gocv.VideoWriter per on-disk segment, rolling data-content segments
  over every framesPerPart written frames (each replica of a logical
  frame counts as one) and opening dedicated, non-rolling segments for
  metadata and pre-metadata.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package segment implements the encode-side segmenter and the merger
// that concatenates its output into a single container.
package segment

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/frame"
)

// Codec is the fourcc passed to gocv.VideoWriterFile. gocv.VideoWriter is
// the external video encoder: its invocation is the collaborator
// boundary, its codec choice is not a protocol concern. Exported so
// calibrate can round-trip a probe frame through the same lossy codec a
// real encode would use.
const Codec = "mp4v"

// Ext is the file extension segment files are written with.
const Ext = ".mp4"

// Segmenter writes painted frames to a sequence of on-disk segment files,
// splitting DataContent into fixed-frame-count parts and giving Metadata
// and PreMetadata one dedicated file each.
type Segmenter struct {
	log logging.Logger
	dir string

	frameW, frameH int
	fps            float64
	framesPerPart  int

	cur       *gocv.VideoWriter
	curCT     frame.ContentType
	curPath   string
	curFrames int
	partIndex int

	dataParts    []string
	dataPartsN   []int
	metadataPath string
	metadataN    int
	preMetaPath  string
	preMetaN     int
}

// NewSegmenter returns a Segmenter writing segments under dir.
func NewSegmenter(log logging.Logger, dir string, frameW, frameH int, fps float64, framesPerPart int) *Segmenter {
	if framesPerPart <= 0 {
		framesPerPart = 1
	}
	return &Segmenter{
		log:           log,
		dir:           dir,
		frameW:        frameW,
		frameH:        frameH,
		fps:           fps,
		framesPerPart: framesPerPart,
		curCT:         -1,
	}
}

// Write appends mat to the segment for ct, opening a new segment file when
// ct transitions (DataContent->Metadata->PreMetadata) or when the current
// data-content part has reached framesPerPart frames.
func (s *Segmenter) Write(ct frame.ContentType, mat gocv.Mat) error {
	if ct != s.curCT {
		if err := s.closeCurrent(); err != nil {
			return err
		}
		if err := s.openFor(ct); err != nil {
			return err
		}
	} else if ct == frame.DataContent && s.curFrames >= s.framesPerPart {
		if err := s.closeCurrent(); err != nil {
			return err
		}
		if err := s.openFor(ct); err != nil {
			return err
		}
	}

	s.cur.Write(mat)
	s.curFrames++
	return nil
}

func (s *Segmenter) openFor(ct frame.ContentType) error {
	const op = "segment.Segmenter.openFor"

	var path string
	switch ct {
	case frame.DataContent:
		s.partIndex++
		path = filepath.Join(s.dir, fmt.Sprintf("content_part%02d%s", s.partIndex, Ext))
	case frame.Metadata:
		path = filepath.Join(s.dir, "metadata"+Ext)
	case frame.PreMetadata:
		path = filepath.Join(s.dir, "pre_metadata"+Ext)
	default:
		return boxerr.New(boxerr.Internal, op, fmt.Errorf("unknown content type %v", ct))
	}

	w, err := gocv.VideoWriterFile(path, Codec, s.fps, s.frameW, s.frameH, true)
	if err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("opening segment %q: %w", path, err))
	}
	s.log.Info("opened segment", "path", path, "content_type", ct.String())

	s.cur = w
	s.curCT = ct
	s.curPath = path
	s.curFrames = 0
	return nil
}

func (s *Segmenter) closeCurrent() error {
	if s.cur == nil {
		return nil
	}
	const op = "segment.Segmenter.closeCurrent"
	if err := s.cur.Close(); err != nil {
		return boxerr.New(boxerr.IO, op, fmt.Errorf("closing segment %q: %w", s.curPath, err))
	}
	switch s.curCT {
	case frame.DataContent:
		s.dataParts = append(s.dataParts, s.curPath)
		s.dataPartsN = append(s.dataPartsN, s.curFrames)
	case frame.Metadata:
		s.metadataPath = s.curPath
		s.metadataN = s.curFrames
	case frame.PreMetadata:
		s.preMetaPath = s.curPath
		s.preMetaN = s.curFrames
	}
	s.cur = nil
	return nil
}

// Close closes whichever segment is currently open. It must be called once
// after the last Write.
func (s *Segmenter) Close() error {
	return s.closeCurrent()
}

// MergePlan describes one segment file's place in the merged container:
// its path and its frame count (used to derive playback duration).
type MergePlan struct {
	Path   string
	Frames int
}

// Plan returns the segments in the order the Merger concatenates them:
// pre-metadata, then metadata, then data parts (ascending), so a
// forward-streaming decoder that reads pre-metadata first by scanning
// from frame 0 never needs to seek. See DESIGN.md for why this ordering
// was chosen over a data-first layout.
func (s *Segmenter) Plan() []MergePlan {
	plan := make([]MergePlan, 0, len(s.dataParts)+2)
	if s.preMetaPath != "" {
		plan = append(plan, MergePlan{s.preMetaPath, s.preMetaN})
	}
	if s.metadataPath != "" {
		plan = append(plan, MergePlan{s.metadataPath, s.metadataN})
	}
	for i, p := range s.dataParts {
		plan = append(plan, MergePlan{p, s.dataPartsN[i]})
	}
	return plan
}
