/*
NAME
  encode.go

DESCRIPTION
  encode.go implements the encode-side pipeline: stream the input file
  through the data section, seal and cascade-encode the metadata record,
  build the self-describing pre-metadata record, paint all three sections
  onto carrier frames through a bounded worker pool, and merge the
  resulting segments into one container.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"

	"github.com/coldvault/boxvid/basecodec"
	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/carrier"
	"github.com/coldvault/boxvid/colormap"
	"github.com/coldvault/boxvid/config"
	"github.com/coldvault/boxvid/frame"
	"github.com/coldvault/boxvid/metadata"
	"github.com/coldvault/boxvid/segment"
)

// frameJob pairs one carrier frame with the symbol chunk it will carry.
type frameJob struct {
	idx     int
	ct      frame.ContentType
	carrier gocv.Mat
	symbols []byte
}

// paintedFrame is a worker's output, still tagged with its frame_index so
// the writer can restore paint order.
type paintedFrame struct {
	idx int
	ct  frame.ContentType
	mat gocv.Mat
}

// Encode runs the full encode pipeline over inputPath, producing a merged
// container under cfg.OutputDir, and returns its path.
func Encode(ctx context.Context, cfg *config.Config, inputPath string) (string, error) {
	const op = "pipeline.Encode"
	log := cfg.Logger

	em, err := colormap.Load(cfg.EncodingMapPath, cfg.ColorThresholdPercent)
	if err != nil {
		return "", err
	}
	base := em.Base()

	geoData, err := frame.NewGeometry(frame.DataContent, cfg.FrameWidth, cfg.FrameHeight, cfg.Margin, cfg.Padding, cfg.DataBoxSizeStep[config.Data], cfg.AllowByteSplitBetweenFrames)
	if err != nil {
		return "", err
	}
	geoMeta, err := frame.NewGeometry(frame.Metadata, cfg.FrameWidth, cfg.FrameHeight, cfg.Margin, cfg.Padding, cfg.DataBoxSizeStep[config.Meta], cfg.AllowByteSplitBetweenFrames)
	if err != nil {
		return "", err
	}
	geoPre, err := frame.NewGeometry(frame.PreMetadata, cfg.FrameWidth, cfg.FrameHeight, cfg.Margin, cfg.Padding, cfg.DataBoxSizeStep[config.Pre], cfg.AllowByteSplitBetweenFrames)
	if err != nil {
		return "", err
	}

	cr := carrier.NewReader(log, cfg.CarrierPath, 0, 1)
	if err := cr.Open(); err != nil {
		return "", err
	}
	defer cr.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("creating output dir: %w", err))
	}
	seg := segment.NewSegmenter(log, cfg.OutputDir, cfg.FrameWidth, cfg.FrameHeight, float64(cfg.OutputFPS), cfg.FramesPerContentPartFile)

	in, err := os.Open(inputPath)
	if err != nil {
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("opening input %q: %w", inputPath, err))
	}
	defer in.Close()

	name := filepath.Base(inputPath)

	log.Info("encoding data content", "input", inputPath, "base", base)
	chunks, done := streamDataContent(ctx, in, base, geoData.Capacity)

	if cfg.Debug {
		symPath := filepath.Join(cfg.OutputDir, name+".symbols")
		symFile, err := os.Create(symPath)
		if err != nil {
			return "", boxerr.New(boxerr.IO, op, fmt.Errorf("creating debug symbol stream %q: %w", symPath, err))
		}
		log.Info("writing debug symbol stream", "path", symPath)
		chunks = teeSymbols(chunks, symFile)
		defer symFile.Close()
	}

	if err := runPhase(ctx, log, cfg, frame.DataContent, geoData, em, cr, seg, cfg.TotalFramesRepetition[config.Data], chunks); err != nil {
		return "", err
	}
	dataResult := <-done
	if dataResult.err != nil {
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("streaming input: %w", dataResult.err))
	}

	rec := metadata.Record{Name: name, Size: dataResult.size, TotalBaseNLength: dataResult.totalSymbols, SHA1Hex: dataResult.sha1Hex}
	log.Info("sealed data section", "size", rec.Size, "total_basen_length", rec.TotalBaseNLength, "sha1", rec.SHA1Hex)

	cascade, err := metadata.EncodeAll(rec)
	if err != nil {
		return "", err
	}

	type candidate struct {
		text string
	}
	texts := []candidate{{cascade.Normal}, {cascade.Base64}, {cascade.Rot13}, {cascade.ReedSolomon}, {cascade.Zfec}}
	spans := make([]metadata.EncodingSpan, len(texts))
	var metaChunks []string
	for i, c := range texts {
		symbols, err := encodeFullString(base, c.text)
		if err != nil {
			return "", err
		}
		cs := chunkString(symbols, geoMeta.Capacity)
		spans[i] = metadata.EncodingSpan{Frames: len(cs), SymbolLen: len(symbols)}
		metaChunks = append(metaChunks, cs...)
	}

	pm := metadata.PreMetadata{
		Normal:      spans[0],
		Base64:      spans[1],
		Rot13:       spans[2],
		ReedSolomon: spans[3],
		Krs:         cascade.ReedSolomonKrs,
		Zfec:        spans[4],
	}

	log.Info("encoding metadata section", "frames", len(metaChunks))
	if err := runPhase(ctx, log, cfg, frame.Metadata, geoMeta, em, cr, seg, cfg.TotalFramesRepetition[config.Meta], chanOfStrings(metaChunks)); err != nil {
		return "", err
	}

	preRecord, err := metadata.Build(base, cfg.LengthOfDigitsToRepresentSize, pm)
	if err != nil {
		return "", err
	}
	preSymbols, err := encodeFullString(base, preRecord)
	if err != nil {
		return "", err
	}
	preChunks := chunkString(preSymbols, geoPre.Capacity)

	log.Info("encoding pre-metadata section", "frames", len(preChunks))
	if err := runPhase(ctx, log, cfg, frame.PreMetadata, geoPre, em, cr, seg, cfg.TotalFramesRepetition[config.Pre], chanOfStrings(preChunks)); err != nil {
		return "", err
	}

	if err := seg.Close(); err != nil {
		return "", err
	}

	outPath := filepath.Join(cfg.OutputDir, name+segment.Ext)
	merger := segment.NewMerger(log, float64(cfg.OutputFPS))
	if err := merger.Merge(ctx, cfg.OutputDir, seg.Plan(), outPath); err != nil {
		return "", err
	}

	log.Info("encode complete", "output", outPath)
	return outPath, nil
}

// encodeFullString runs text's bytes through a fresh baseN encoder to
// completion, returning the full symbol string (used for metadata and
// pre-metadata, whose entire text is known up front, unlike the streamed
// data section).
func encodeFullString(base int, text string) (string, error) {
	enc, err := basecodec.NewEncoder(base)
	if err != nil {
		return "", err
	}
	enc.Feed([]byte(text))
	return enc.Flush(), nil
}

// chanOfStrings returns a closed-at-end channel yielding items in order.
func chanOfStrings(items []string) <-chan string {
	ch := make(chan string, len(items))
	for _, s := range items {
		ch <- s
	}
	close(ch)
	return ch
}

// runPhase paints every chunk from chunks onto the next carrier frame and
// writes it (replicated repeat times) to seg, in frame_index order. The
// encoder's own state machine serializes content-type transitions, so
// phases run one at a time; concurrency is exploited within a phase: a
// carrier-frame reader, a worker pool sized to runtime.NumCPU(), and a
// single reordering writer.
func runPhase(ctx context.Context, log logging.Logger, cfg *config.Config, ct frame.ContentType, geo *frame.Geometry, em *colormap.Map, cr *carrier.Reader, seg *segment.Segmenter, repeat int, chunks <-chan string) error {
	const op = "pipeline.runPhase"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	queueDepth := numWorkers * 2

	jobs := make(chan frameJob, queueDepth)
	results := make(chan paintedFrame, queueDepth)
	errCh := make(chan error, 1)
	reportErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
		cancel()
	}

	go func() {
		defer close(jobs)
		idx := 0
		for chunk := range chunks {
			ramGate(ctx, log, cfg.RAMThresholdTriggerBytes, cfg.RAMThresholdResumeBytes)

			cmat := gocv.NewMat()
			ok, err := cr.Next(&cmat)
			if err != nil {
				cmat.Close()
				reportErr(boxerr.New(boxerr.IO, op, err))
				return
			}
			if !ok {
				cmat.Close()
				reportErr(boxerr.New(boxerr.IO, op, fmt.Errorf("carrier exhausted before %s section finished", ct)))
				return
			}
			select {
			case jobs <- frameJob{idx: idx, ct: ct, carrier: cmat, symbols: []byte(chunk)}:
			case <-ctx.Done():
				cmat.Close()
				return
			}
			idx++
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				painted, err := frame.Paint(job.carrier, geo, em, job.symbols)
				job.carrier.Close()
				if err != nil {
					reportErr(err)
					return
				}
				select {
				case results <- paintedFrame{idx: job.idx, ct: job.ct, mat: painted}:
				case <-ctx.Done():
					painted.Close()
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	buf := newReorderBuffer(queueDepth * 4)
	for pf := range results {
		select {
		case err := <-errCh:
			return err
		default:
		}
		if !buf.Push(pf.idx, pf) {
			return boxerr.New(boxerr.Internal, op, fmt.Errorf("%s: reorder buffer overflow at index %d", ct, pf.idx))
		}
		for _, item := range buf.Drain() {
			p := item.(paintedFrame)
			if err := writeRepeated(seg, p, repeat); err != nil {
				return err
			}
		}
	}

	select {
	case err := <-errCh:
		return err
	default:
	}
	if !buf.Empty() {
		return boxerr.New(boxerr.Internal, op, fmt.Errorf("%s: reorder buffer left undrained", ct))
	}
	return nil
}

// writeRepeated writes p's painted Mat to seg repeat times: the R[c]
// replicas of one logical frame share a single painted buffer, per the
// resolved reading of use_same_bgr_frame_for_repetition (both modes are
// pixel-identical; the config flag is a paint-allocation optimization,
// not a protocol difference, so the pipeline always shares the buffer).
func writeRepeated(seg *segment.Segmenter, p paintedFrame, repeat int) error {
	defer p.mat.Close()
	for i := 0; i < repeat; i++ {
		if err := seg.Write(p.ct, p.mat); err != nil {
			return err
		}
	}
	return nil
}
