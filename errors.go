package eer

import (
	"errors"

	"github.com/jamesainslie/go-eer/counter"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrScoreOutOfRange indicates a score outside [minval, maxval] or NaN.
	ErrScoreOutOfRange = errors.New("eer: score outside configured range")

	// ErrLengthMismatch indicates more scores than labels under WithStrictLengths.
	ErrLengthMismatch = counter.ErrLengthMismatch

	// ErrIncompatible indicates runs that cannot be combined.
	ErrIncompatible = errors.New("eer: incompatible runs")

	// ErrNoRuns indicates Combine was called without results.
	ErrNoRuns = errors.New("eer: nothing to combine")
)
