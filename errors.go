package assemblyline

import (
	"errors"
	"fmt"
)

var (
	ErrFeed           = errors.New("feed failed")
	ErrChew           = errors.New("chew failed")
	ErrDigest         = errors.New("digest failed")
	ErrStatus         = errors.New("status report failed")
	ErrPanic          = errors.New("panic")
	ErrInvalidOptions = errors.New("invalid options")
	ErrInvalidLine    = errors.New("invalid line, nil feeder, chewer or digester")
	ErrPoolClosed     = errors.New("worker pool closed")
)

// Stage identifies a stage of the line.
type Stage string

const (
	StageFeed     Stage = "feed"
	StageDispatch Stage = "dispatch"
	StageChew     Stage = "chew"
	StageDigest   Stage = "digest"
	StageStatus   Stage = "status"
)

func (s Stage) sentinel() error {
	switch s {
	case StageFeed:
		return ErrFeed
	case StageChew:
		return ErrChew
	case StageDigest:
		return ErrDigest
	case StageStatus:
		return ErrStatus
	}
	return nil
}

// StageError is the error returned by Run when a stage fails. Index is the item being handled, or -1 when no item is involved.
type StageError struct {
	Stage Stage
	Index int64
	Err   error
}

func newStageError(stage Stage, index int64, err error) *StageError {
	return &StageError{Stage: stage, Index: index, Err: err}
}

func (e *StageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("assemblyline: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("assemblyline: %s at index %d: %v", e.Stage, e.Index, e.Err)
}

// Unwrap exposes both the stage sentinel (ErrChew, ...) and the underlying error.
func (e *StageError) Unwrap() []error {
	if s := e.Stage.sentinel(); s != nil {
		return []error{s, e.Err}
	}
	return []error{e.Err}
}
