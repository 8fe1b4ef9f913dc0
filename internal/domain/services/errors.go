package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion  = errors.New("invalid version")
	ErrInvalidDigest   = errors.New("invalid sha256 digest")
	ErrInvalidLocation = errors.New("invalid location")
	ErrUnknownTriple   = errors.New("unknown target triple")
)

// InvalidRecordError reports a catalog record rejected during registry
// construction
type InvalidRecordError struct {
	Index        int
	TargetTriple string
	Version      string
	Err          error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("catalog record %d (%s %s): %v", e.Index, e.Version, e.TargetTriple, e.Err)
}

func (e *InvalidRecordError) Unwrap() error {
	return e.Err
}
