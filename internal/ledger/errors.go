package ledger

import (
	"errors"
	"fmt"
)

// ErrCorruptState matches any CorruptStateError via errors.Is.
var ErrCorruptState = errors.New("ledger state is corrupt")

// CorruptStateError means a snapshot exists but cannot be decoded. It must
// never be read as an empty ledger.
type CorruptStateError struct {
	Location string
	Err      error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt ledger state at %s: %v", e.Location, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

func (e *CorruptStateError) Is(target error) bool { return target == ErrCorruptState }
