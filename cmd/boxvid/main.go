/*
NAME
  main.go

DESCRIPTION
  main.go provides the boxvid command line tool: encode hides a file inside
  a carrier video, decode recovers a file from a previously produced
  container, and calibrate helps an operator choose a sane
  color_threshold_percent for a candidate encoding map before committing to
  a full encode.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command boxvid hides and recovers files inside video, using a grid of
// colored boxes painted onto carrier frames.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"gocv.io/x/gocv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/calibrate"
	"github.com/coldvault/boxvid/colormap"
	"github.com/coldvault/boxvid/config"
	"github.com/coldvault/boxvid/frame"
	"github.com/coldvault/boxvid/pipeline"
)

const version = "v0.1.0"

// Logging configuration, mirroring cmd/rv's lumberjack rotation policy.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encode":
		runEncode(os.Args[2:])
	case "decode":
		runDecode(os.Args[2:])
	case "calibrate":
		runCalibrate(os.Args[2:])
	case "-version", "--version", "version":
		fmt.Println(version)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: boxvid <encode|decode|calibrate> [flags]")
}

func newLogger(logPath string, debug bool) logging.Logger {
	level := logging.Info
	if debug {
		level = logging.Debug
	}
	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	return logging.New(level, io.MultiWriter(fileLog, os.Stderr), true)
}

// probeFrameSize opens path just long enough to read its frame dimensions,
// used to default -frame-width/-frame-height from the carrier or container
// when the operator doesn't already know them.
func probeFrameSize(path string) (w, h int, err error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return 0, 0, err
	}
	defer vc.Close()
	w = int(vc.Get(gocv.VideoCaptureFrameWidth))
	h = int(vc.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("could not determine frame size of %q", path)
	}
	return w, h, nil
}

// commonFlags are shared between encode and decode: the geometry and
// redundancy parameters every content type needs.
type commonFlags struct {
	frameWidth, frameHeight               int
	margin, padding                       int
	boxStepData, boxStepMeta, boxStepPre  int
	repeatData, repeatMeta, repeatPre     int
	pickData, pickMeta, pickPre           int
	allowByteSplit                        bool
	encodingMap                           string
	colorThreshold                        float64
	lengthDigits                          int
	ramTrigger, ramResume                 uint64
	debug                                 bool
	logPath                               string
}

func bindCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.IntVar(&c.frameWidth, "frame-width", 0, "carrier/container frame width in pixels (auto-detected if 0)")
	fs.IntVar(&c.frameHeight, "frame-height", 0, "carrier/container frame height in pixels (auto-detected if 0)")
	fs.IntVar(&c.margin, "margin", 10, "untouched outer border width, in pixels")
	fs.IntVar(&c.padding, "padding", 10, "always-white ring width inside the margin, in pixels")
	fs.IntVar(&c.boxStepData, "box-step-data", 4, "data box side length for DATACONTENT, in pixels")
	fs.IntVar(&c.boxStepMeta, "box-step-meta", 4, "data box side length for METADATA, in pixels")
	fs.IntVar(&c.boxStepPre, "box-step-pre", 4, "data box side length for PREMETADATA, in pixels")
	fs.IntVar(&c.repeatData, "repeat-data", 1, "frames written per logical DATACONTENT frame")
	fs.IntVar(&c.repeatMeta, "repeat-meta", 3, "frames written per logical METADATA frame")
	fs.IntVar(&c.repeatPre, "repeat-pre", 3, "frames written per logical PREMETADATA frame")
	fs.IntVar(&c.pickData, "pick-data", 1, "replica read back for DATACONTENT, 1-indexed")
	fs.IntVar(&c.pickMeta, "pick-meta", 2, "replica read back for METADATA, 1-indexed")
	fs.IntVar(&c.pickPre, "pick-pre", 2, "replica read back for PREMETADATA, 1-indexed")
	fs.BoolVar(&c.allowByteSplit, "allow-byte-split", true, "allow a byte's symbols to straddle a frame boundary")
	fs.StringVar(&c.encodingMap, "encoding-map", "", "path to the encoding map JSON file (required)")
	fs.Float64Var(&c.colorThreshold, "color-threshold", 10.0, "per-channel color tolerance, percent of 255")
	fs.IntVar(&c.lengthDigits, "length-digits", 8, "zero-padded width of the pre-metadata length field")
	fs.Uint64Var(&c.ramTrigger, "ram-trigger-bytes", 512*1024*1024, "pause production when free RAM falls below this")
	fs.Uint64Var(&c.ramResume, "ram-resume-bytes", 1024*1024*1024, "resume production once free RAM climbs above this")
	fs.BoolVar(&c.debug, "debug", false, "keep mismatched decode output; also verbose logging")
	fs.StringVar(&c.logPath, "log", "boxvid.log", "log file path")
	return c
}

func (c *commonFlags) toConfig(log logging.Logger) *config.Config {
	return &config.Config{
		FrameWidth:                    c.frameWidth,
		FrameHeight:                   c.frameHeight,
		Margin:                        c.margin,
		Padding:                       c.padding,
		DataBoxSizeStep:               [3]int{config.Data: c.boxStepData, config.Meta: c.boxStepMeta, config.Pre: c.boxStepPre},
		TotalFramesRepetition:         [3]int{config.Data: c.repeatData, config.Meta: c.repeatMeta, config.Pre: c.repeatPre},
		PickFrameToRead:               [3]int{config.Data: c.pickData, config.Meta: c.pickMeta, config.Pre: c.pickPre},
		AllowByteSplitBetweenFrames:   c.allowByteSplit,
		EncodingMapPath:               c.encodingMap,
		ColorThresholdPercent:         c.colorThreshold,
		LengthOfDigitsToRepresentSize: c.lengthDigits,
		RAMThresholdTriggerBytes:      c.ramTrigger,
		RAMThresholdResumeBytes:       c.ramResume,
		Debug:                         c.debug,
		Logger:                        log,
	}
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	common := bindCommonFlags(fs)
	input := fs.String("input", "", "file to hide (required)")
	carrierPath := fs.String("carrier", "", "carrier video template (required)")
	outputDir := fs.String("output-dir", ".", "directory for segments and the merged container")
	framesPerPart := fs.Int("frames-per-part", 1000, "data-content frames per on-disk segment file")
	fps := fs.Int("fps", 25, "output framerate")
	speed := fs.Int("encoding-speed", 5, "1 (slowest/smallest) .. 9 (fastest/largest)")
	fs.Parse(args)

	if *input == "" || *carrierPath == "" || common.encodingMap == "" {
		fmt.Fprintln(os.Stderr, "encode: -input, -carrier and -encoding-map are required")
		os.Exit(2)
	}

	log := newLogger(common.logPath, common.debug)
	if common.frameWidth == 0 || common.frameHeight == 0 {
		w, h, err := probeFrameSize(*carrierPath)
		if err != nil {
			log.Error("could not probe carrier frame size", "error", err)
			os.Exit(exitCode(err))
		}
		common.frameWidth, common.frameHeight = w, h
	}

	cfg := common.toConfig(log)
	cfg.CarrierPath = *carrierPath
	cfg.OutputDir = *outputDir
	cfg.FramesPerContentPartFile = *framesPerPart
	cfg.OutputFPS = *fps
	cfg.EncodingSpeed = *speed

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(exitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(cfg)
	result := p.RunEncode(ctx, *input)
	if result.Err != nil {
		log.Error("encode failed", "error", result.Err)
		os.Exit(exitCode(result.Err))
	}
	fmt.Println(result.OutputPath)
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	common := bindCommonFlags(fs)
	containerPath := fs.String("container", "", "merged container video to recover a file from (required)")
	outputDir := fs.String("output-dir", ".", "directory the recovered file is written to")
	fs.Parse(args)

	if *containerPath == "" || common.encodingMap == "" {
		fmt.Fprintln(os.Stderr, "decode: -container and -encoding-map are required")
		os.Exit(2)
	}

	log := newLogger(common.logPath, common.debug)
	if common.frameWidth == 0 || common.frameHeight == 0 {
		w, h, err := probeFrameSize(*containerPath)
		if err != nil {
			log.Error("could not probe container frame size", "error", err)
			os.Exit(exitCode(err))
		}
		common.frameWidth, common.frameHeight = w, h
	}

	cfg := common.toConfig(log)
	cfg.DataFolderDecoded = *outputDir

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(exitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(cfg)
	result := p.RunDecode(ctx, *containerPath)
	if result.Err != nil {
		log.Error("decode failed", "error", result.Err)
		os.Exit(exitCode(result.Err))
	}
	fmt.Println(result.OutputPath)
}

func runCalibrate(args []string) {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	encodingMap := fs.String("encoding-map", "", "path to the encoding map JSON file (required)")
	threshold := fs.Float64("color-threshold", 10.0, "percent of 255, as it would be passed to encode/decode")
	carrierPath := fs.String("carrier", "", "carrier video to sample a frame from (required)")
	frameWidth := fs.Int("frame-width", 0, "carrier frame width in pixels (auto-detected if 0)")
	frameHeight := fs.Int("frame-height", 0, "carrier frame height in pixels (auto-detected if 0)")
	margin := fs.Int("margin", 10, "untouched outer border width, in pixels")
	padding := fs.Int("padding", 10, "always-white ring width inside the margin, in pixels")
	boxStep := fs.Int("box-step", 4, "data box side length, in pixels")
	allowByteSplit := fs.Bool("allow-byte-split", true, "allow a byte's symbols to straddle a frame boundary")
	fps := fs.Float64("fps", 25, "framerate used to round-trip the probe frame through the video codec")
	plotOut := fs.String("plot-out", "", "if set, write a PNG bar chart of each symbol's color margin")
	logPath := fs.String("log", "boxvid.log", "log file path")
	fs.Parse(args)

	if *encodingMap == "" || *carrierPath == "" {
		fmt.Fprintln(os.Stderr, "calibrate: -encoding-map and -carrier are required")
		os.Exit(2)
	}

	log := newLogger(*logPath, false)

	em, err := colormap.Load(*encodingMap, *threshold)
	if err != nil {
		fmt.Fprintln(os.Stderr, "calibrate:", err)
		os.Exit(exitCode(err))
	}

	w, h := *frameWidth, *frameHeight
	if w == 0 || h == 0 {
		w, h, err = probeFrameSize(*carrierPath)
		if err != nil {
			log.Error("could not probe carrier frame size", "error", err)
			os.Exit(exitCode(err))
		}
	}

	geo, err := frame.NewGeometry(frame.DataContent, w, h, *margin, *padding, *boxStep, *allowByteSplit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "calibrate:", err)
		os.Exit(exitCode(err))
	}

	margins, suggested, err := calibrate.Run(log, *carrierPath, em, geo, *fps)
	if err != nil {
		fmt.Fprintln(os.Stderr, "calibrate:", err)
		os.Exit(exitCode(err))
	}

	for _, m := range margins {
		fmt.Printf("%c: mean_distance=%.2f stddev=%.2f own_drift=%.2f\n", m.Symbol, m.MeanDistance, m.StdDev, m.OwnDrift)
	}
	fmt.Printf("suggested color_threshold_percent: %.2f\n", suggested)

	if *plotOut != "" {
		if err := calibrate.PlotMargins(margins, *plotOut); err != nil {
			fmt.Fprintln(os.Stderr, "calibrate: writing plot:", err)
			os.Exit(exitCode(err))
		}
	}
}

// exitCode maps a boxerr.Kind to a process exit status so scripts driving
// boxvid can distinguish a bad configuration from a corrupted container.
func exitCode(err error) int {
	var be *boxerr.Error
	if !errors.As(err, &be) {
		return 1
	}
	switch be.Kind {
	case boxerr.Config:
		return 2
	case boxerr.IO:
		return 3
	case boxerr.Protocol:
		return 4
	case boxerr.Integrity:
		return 5
	case boxerr.Internal:
		return 6
	default:
		return 1
	}
}
