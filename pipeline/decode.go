/*
NAME
  decode.go

DESCRIPTION
  decode.go implements the decode-side pipeline: read the merged container
  forward from frame 0, recover pre-metadata, run the metadata validation
  cascade, then stream-decode the data section against the sealed
  size/total_baseN_length/SHA1, verifying integrity before the output file
  is kept.

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
	"crypto/sha1"
	"fmt"
	"io"
	"os"
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
)

// Decode runs the full decode pipeline over a merged container, recovering
// the original file under cfg.DataFolderDecoded, and returns its path.
func Decode(ctx context.Context, cfg *config.Config, containerPath string) (string, error) {
	const op = "pipeline.Decode"
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

	cr := carrier.NewReader(log, containerPath, 0, 1)
	if err := cr.Open(); err != nil {
		return "", err
	}
	defer cr.Close()

	log.Info("reading pre-metadata")
	pm, err := readPreMetadata(cr, geoPre, em, base, cfg.TotalFramesRepetition[config.Pre], cfg.PickFrameToRead[config.Pre], cfg.LengthOfDigitsToRepresentSize)
	if err != nil {
		return "", err
	}

	log.Info("reading metadata candidates")
	enc := metadata.Encodings{ReedSolomonKrs: pm.Krs}
	if enc.Normal, err = readSymbolSection(cr, geoMeta, em, base, cfg.TotalFramesRepetition[config.Meta], cfg.PickFrameToRead[config.Meta], pm.Normal.SymbolLen); err != nil {
		return "", err
	}
	if enc.Base64, err = readSymbolSection(cr, geoMeta, em, base, cfg.TotalFramesRepetition[config.Meta], cfg.PickFrameToRead[config.Meta], pm.Base64.SymbolLen); err != nil {
		return "", err
	}
	if enc.Rot13, err = readSymbolSection(cr, geoMeta, em, base, cfg.TotalFramesRepetition[config.Meta], cfg.PickFrameToRead[config.Meta], pm.Rot13.SymbolLen); err != nil {
		return "", err
	}
	if enc.ReedSolomon, err = readSymbolSection(cr, geoMeta, em, base, cfg.TotalFramesRepetition[config.Meta], cfg.PickFrameToRead[config.Meta], pm.ReedSolomon.SymbolLen); err != nil {
		return "", err
	}
	if enc.Zfec, err = readSymbolSection(cr, geoMeta, em, base, cfg.TotalFramesRepetition[config.Meta], cfg.PickFrameToRead[config.Meta], pm.Zfec.SymbolLen); err != nil {
		return "", err
	}

	rec, method, err := metadata.Decode(enc, pm.Krs)
	if err != nil {
		return "", err
	}
	log.Info("metadata validated", "method", method, "name", rec.Name, "size", rec.Size, "sha1", rec.SHA1Hex)

	if err := os.MkdirAll(cfg.DataFolderDecoded, 0o755); err != nil {
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("creating output dir: %w", err))
	}
	outPath := outputPath(cfg.DataFolderDecoded, rec.Name)
	outFile, err := os.Create(outPath)
	if err != nil {
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("creating output file %q: %w", outPath, err))
	}

	log.Info("decoding data content", "frames", (rec.TotalBaseNLength+int64(geoData.Capacity)-1)/int64(geoData.Capacity))
	h := sha1.New()
	sink := io.MultiWriter(outFile, h)
	derr := decodeDataContent(ctx, log, geoData, em, cr, base, cfg.TotalFramesRepetition[config.Data], cfg.PickFrameToRead[config.Data], rec.TotalBaseNLength, sink)
	closeErr := outFile.Close()
	if derr != nil {
		os.Remove(outPath)
		return "", derr
	}
	if closeErr != nil {
		os.Remove(outPath)
		return "", boxerr.New(boxerr.IO, op, fmt.Errorf("closing output file: %w", closeErr))
	}

	gotSHA1 := hexSum(h.Sum(nil))
	if gotSHA1 != rec.SHA1Hex {
		if !cfg.Debug {
			os.Remove(outPath)
		}
		return "", boxerr.New(boxerr.Integrity, op, fmt.Errorf("SHA1 mismatch: got %s, want %s", gotSHA1, rec.SHA1Hex))
	}

	log.Info("decode complete", "output", outPath)
	return outPath, nil
}

// readLogicalFrame reads repeat consecutive container frames, keeping only
// the pick-th (1-indexed) as the logical frame's sample and discarding the
// rest, per the content type's pick_frame_to_read / total_frames_repetition
// pair.
func readLogicalFrame(cr *carrier.Reader, repeat, pick int) (gocv.Mat, bool, error) {
	var picked gocv.Mat
	have := false
	for i := 1; i <= repeat; i++ {
		m := gocv.NewMat()
		ok, err := cr.Next(&m)
		if err != nil {
			m.Close()
			if have {
				picked.Close()
			}
			return gocv.Mat{}, false, err
		}
		if !ok {
			m.Close()
			if have {
				picked.Close()
			}
			return gocv.Mat{}, false, nil
		}
		if i == pick {
			picked = m
			have = true
		} else {
			m.Close()
		}
	}
	return picked, true, nil
}

// readSymbolSection reads exactly enough logical frames to recover
// totalSymbols symbols, decoding them through a fresh baseN decoder, and
// returns the decoded text. Used for each metadata cascade candidate,
// whose symbol length is already known from pre-metadata.
func readSymbolSection(cr *carrier.Reader, geo *frame.Geometry, em *colormap.Map, base, repeat, pick, totalSymbols int) (string, error) {
	const op = "pipeline.readSymbolSection"
	dec, err := basecodec.NewDecoder(base)
	if err != nil {
		return "", err
	}
	var out []byte
	remaining := totalSymbols
	for remaining > 0 {
		want := geo.Capacity
		if want > remaining {
			want = remaining
		}
		mat, ok, err := readLogicalFrame(cr, repeat, pick)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", boxerr.New(boxerr.IO, op, fmt.Errorf("container exhausted mid-%s section", geo.ContentType))
		}
		symbols := frame.Read(mat, geo, em, want)
		mat.Close()
		decoded, err := dec.Feed(string(symbols))
		if err != nil {
			return "", err
		}
		out = append(out, decoded...)
		remaining -= want
	}
	if err := dec.Flush(); err != nil {
		return "", err
	}
	return string(out), nil
}

// readPreMetadata reads the self-describing pre-metadata section: its own
// length L is embedded within its first few bytes, so frames are read one
// at a time until DiscoverLength succeeds, and then until the now-known
// total symbol count has been consumed.
func readPreMetadata(cr *carrier.Reader, geo *frame.Geometry, em *colormap.Map, base, repeat, pick, lengthDigits int) (metadata.PreMetadata, error) {
	const op = "pipeline.readPreMetadata"
	dec, err := basecodec.NewDecoder(base)
	if err != nil {
		return metadata.PreMetadata{}, err
	}

	var out []byte
	symbolsConsumed := 0
	known := false
	total := 0

	for !known || symbolsConsumed < total {
		want := geo.Capacity
		if known {
			if remaining := total - symbolsConsumed; remaining < want {
				want = remaining
			}
		}
		mat, ok, err := readLogicalFrame(cr, repeat, pick)
		if err != nil {
			return metadata.PreMetadata{}, err
		}
		if !ok {
			return metadata.PreMetadata{}, boxerr.New(boxerr.IO, op, fmt.Errorf("container too short for pre-metadata"))
		}
		symbols := frame.Read(mat, geo, em, want)
		mat.Close()
		decoded, err := dec.Feed(string(symbols))
		if err != nil {
			return metadata.PreMetadata{}, err
		}
		out = append(out, decoded...)
		symbolsConsumed += want

		if !known {
			t, ok2, err := metadata.DiscoverLength(out, lengthDigits)
			if err != nil {
				return metadata.PreMetadata{}, err
			}
			if ok2 {
				if symbolsConsumed > t {
					return metadata.PreMetadata{}, boxerr.New(boxerr.Protocol, op, fmt.Errorf("discovered pre-metadata length %d shorter than %d symbols already read", t, symbolsConsumed))
				}
				total = t
				known = true
			}
		}
	}
	if err := dec.Flush(); err != nil {
		return metadata.PreMetadata{}, err
	}
	return metadata.Parse(string(out), lengthDigits)
}

// decodeJob pairs one container frame with the number of valid symbols it
// carries (capacity, except possibly fewer on the section's last frame).
type decodeJob struct {
	idx  int
	mat  gocv.Mat
	want int
}

// decodedSymbols is a worker's output: the classified symbols for one
// frame, still tagged with its frame_index.
type decodedSymbols struct {
	idx     int
	symbols []byte
}

// decodeDataContent reads totalSymbols worth of data-content frames,
// classifying them concurrently across a worker pool (the CPU-bound pixel
// work), then feeds the reordered symbol stream through a single baseN
// decoder and sha1 hash, writing bytes to sink as they are recovered. The
// carrier frame reader and the final decode/hash/write step are each
// necessarily sequential (box classification is not); this mirrors the
// shape of the encode-side painter pipeline.
func decodeDataContent(ctx context.Context, log logging.Logger, geo *frame.Geometry, em *colormap.Map, cr *carrier.Reader, base, repeat, pick int, totalSymbols int64, sink io.Writer) error {
	const op = "pipeline.decodeDataContent"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	queueDepth := numWorkers * 2

	jobs := make(chan decodeJob, queueDepth)
	results := make(chan decodedSymbols, queueDepth)
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
		remaining := totalSymbols
		idx := 0
		for remaining > 0 {
			want := int64(geo.Capacity)
			if want > remaining {
				want = remaining
			}
			mat, ok, err := readLogicalFrame(cr, repeat, pick)
			if err != nil {
				reportErr(err)
				return
			}
			if !ok {
				reportErr(boxerr.New(boxerr.IO, op, fmt.Errorf("container exhausted mid-data section")))
				return
			}
			select {
			case jobs <- decodeJob{idx: idx, mat: mat, want: int(want)}:
			case <-ctx.Done():
				mat.Close()
				return
			}
			remaining -= want
			idx++
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				symbols := frame.Read(job.mat, geo, em, job.want)
				job.mat.Close()
				select {
				case results <- decodedSymbols{idx: job.idx, symbols: symbols}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	dec, err := basecodec.NewDecoder(base)
	if err != nil {
		cancel()
		return err
	}
	buf := newReorderBuffer(queueDepth * 4)
	for ds := range results {
		select {
		case err := <-errCh:
			return err
		default:
		}
		if !buf.Push(ds.idx, ds) {
			return boxerr.New(boxerr.Internal, op, fmt.Errorf("reorder buffer overflow at index %d", ds.idx))
		}
		for _, item := range buf.Drain() {
			d := item.(decodedSymbols)
			decoded, err := dec.Feed(string(d.symbols))
			if err != nil {
				return err
			}
			if _, err := sink.Write(decoded); err != nil {
				return boxerr.New(boxerr.IO, op, fmt.Errorf("writing output: %w", err))
			}
		}
	}

	select {
	case err := <-errCh:
		return err
	default:
	}
	if !buf.Empty() {
		return boxerr.New(boxerr.Internal, op, fmt.Errorf("reorder buffer left undrained"))
	}
	return dec.Flush()
}
