/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go provides Pipeline, the top-level entry point tying a
  validated Config to the Encode and Decode operations, in the
  run-and-report-errors shape revid/pipeline.go's Revid uses. RunEncode and
  RunDecode return a Result synchronously (cmd/boxvid uses these);
  GoEncode and GoDecode deliver it on a result channel so a caller can run
  a job while still reacting to cancellation.

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

	"github.com/coldvault/boxvid/boxerr"
	"github.com/coldvault/boxvid/config"
)

// Result is what a Pipeline run reports once finished: the output path
// (merged container on encode, recovered file on decode) or an error.
type Result struct {
	OutputPath string
	Err        error
}

// Pipeline runs one boxvid encode or decode job against a validated Config.
type Pipeline struct {
	cfg *config.Config
}

// New returns a Pipeline for cfg, which must already have passed
// Config.Validate.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// RunEncode runs Encode synchronously.
func (p *Pipeline) RunEncode(ctx context.Context, inputPath string) Result {
	out, err := Encode(ctx, p.cfg, inputPath)
	return Result{OutputPath: out, Err: err}
}

// RunDecode runs Decode synchronously.
func (p *Pipeline) RunDecode(ctx context.Context, containerPath string) Result {
	out, err := Decode(ctx, p.cfg, containerPath)
	return Result{OutputPath: out, Err: err}
}

// GoEncode runs Encode in its own goroutine, delivering its Result on the
// returned channel exactly once.
func (p *Pipeline) GoEncode(ctx context.Context, inputPath string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- Result{Err: boxerr.New(boxerr.Internal, "pipeline.Pipeline.GoEncode", fmt.Errorf("panic: %v", r))}
			}
		}()
		out <- p.RunEncode(ctx, inputPath)
	}()
	return out
}

// GoDecode runs Decode in its own goroutine, delivering its Result on the
// returned channel exactly once.
func (p *Pipeline) GoDecode(ctx context.Context, containerPath string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- Result{Err: boxerr.New(boxerr.Internal, "pipeline.Pipeline.GoDecode", fmt.Errorf("panic: %v", r))}
			}
		}()
		out <- p.RunDecode(ctx, containerPath)
	}()
	return out
}
