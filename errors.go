package gofacscore

import (
	"errors"
	"fmt"
)

// ErrConfig is the root of all configuration faults. The specific sentinels
// below wrap it, so callers can match the whole class with errors.Is.
var ErrConfig = errors.New("gofacscore: invalid configuration")

var (
	// ErrNoVariation means no titration specifier holds more than one value,
	// so there is nothing to enumerate.
	ErrNoVariation = fmt.Errorf("%w: no specifier varies across concentration stops", ErrConfig)

	// ErrLengthMismatch means a specifier length is neither 1 nor the stop count.
	ErrLengthMismatch = fmt.Errorf("%w: specifier length mismatch", ErrConfig)

	// ErrChannelNotFound means a dataset lacks a requested channel.
	ErrChannelNotFound = fmt.Errorf("%w: channel not found", ErrConfig)

	// ErrNoData means a dataset or dataset collection holds no events.
	ErrNoData = fmt.Errorf("%w: no data", ErrConfig)
)
