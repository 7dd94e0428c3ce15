/*
NAME
  output.go

DESCRIPTION
  output.go implements the decode-side filename collision policy: try
  <name>, then decoded_<name>, then decoded(01)_<name>, decoded(02)_<name>,
  and so on.

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
	"fmt"
	"os"
	"path/filepath"
)

// outputPath returns the first of <dir>/<name>, <dir>/decoded_<name>,
// <dir>/decoded(01)_<name>, <dir>/decoded(02)_<name>, ... that does not
// already exist.
func outputPath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !exists(candidate) {
		return candidate
	}
	candidate = filepath.Join(dir, "decoded_"+name)
	if !exists(candidate) {
		return candidate
	}
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("decoded(%02d)_%s", n, name))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
