/*
NAME
  ram.go

DESCRIPTION
  ram.go implements the RAM-availability backpressure gate: symbol
  production pauses once free memory drops below ram_threshold_trigger,
  and only resumes once it climbs back above ram_threshold_resume,
  checked in 1-second ticks.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline wires the baseN codec, frame painter/reader, metadata
// cascade, carrier reader, and segmenter/merger into the concurrent
// encode and decode pipelines.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ausocean/utils/logging"
)

// ramFree returns the current free memory in bytes, as reported by the
// kernel via unix.Sysinfo. It is a direct read, not an estimate.
func ramFree() (uint64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	return uint64(info.Freeram) * uint64(info.Unit), nil
}

// ramGate blocks the encode-side symbol producer while free RAM is below
// triggerBytes, resuming once it has recovered to resumeBytes. Ticks are
// 1-second; it returns early if ctx is cancelled.
func ramGate(ctx context.Context, log logging.Logger, triggerBytes, resumeBytes uint64) {
	free, err := ramFree()
	if err != nil {
		log.Warning("could not read free RAM, skipping backpressure gate", "error", err)
		return
	}
	if free >= triggerBytes {
		return
	}

	log.Info("pausing symbol production: free RAM below trigger", "free", free, "trigger", triggerBytes)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			free, err := ramFree()
			if err != nil {
				log.Warning("could not read free RAM, resuming", "error", err)
				return
			}
			if free >= resumeBytes {
				log.Info("resuming symbol production: free RAM above resume threshold", "free", free, "resume", resumeBytes)
				return
			}
		}
	}
}
