package model

import (
	"errors"
)

var (
	ErrCapacityExceeded = errors.New("task capacity exceeded")
	ErrInvalidID        = errors.New("invalid task id")
	ErrSpawnFailure     = errors.New("spawn failed")
	ErrMalformedCommand = errors.New("malformed command")
	ErrLineOverflow     = errors.New("line too long")
)
