/*
NAME
  boxerr.go

DESCRIPTION
  boxerr provides the failure taxonomy shared across boxvid's packages:
  ConfigError, IOError, ProtocolError, IntegrityError and InternalError.
  Each wraps an underlying cause so errors.Is/errors.As keep working, while
  letting callers recover the Kind to decide process exit codes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package boxerr defines the error kinds used throughout boxvid.
package boxerr

import "fmt"

// Kind categorises a failure per the error handling design.
type Kind int

const (
	// Config indicates an invalid encoding map, overlapping color bands,
	// mismatched list lengths, or other bad configuration.
	Config Kind = iota
	// IO indicates a missing/short carrier, unreadable container, or a
	// failure from an external video encoder/decoder process.
	IO
	// Protocol indicates pre-metadata length was not found, the stream
	// ended prematurely mid-section, or all metadata encodings failed.
	Protocol
	// Integrity indicates a SHA1 mismatch after a full decode.
	Integrity
	// Internal indicates a bug: out-of-order worker results beyond the
	// reorder buffer's bound, or similar invariant violations.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case IO:
		return "IOError"
	case Protocol:
		return "ProtocolError"
	case Integrity:
		return "IntegrityError"
	case Internal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Error is a Kind-tagged error that wraps an underlying cause.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "colormap.Load".
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and the operation name that failed.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
