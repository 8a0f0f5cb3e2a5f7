package checkpoint

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")
	ErrUnknownAgentType  = errors.New("unknown agent type")
	ErrManifestMismatch  = errors.New("trainer manifest mismatch")
)

// Error records which checkpoint operation failed on which path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptCheckpoint, fmt.Sprintf(format, args...))
}
