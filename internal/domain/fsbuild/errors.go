package fsbuild

import "errors"

var (
	// ErrUnknownFormatVersion is returned by the persistence layer's Load
	// (fsrt.Persistence.Load) when the persisted state was written by a
	// different format version than the one it reads.
	ErrUnknownFormatVersion = errors.New("fsbuild: unknown persisted format version")
)
