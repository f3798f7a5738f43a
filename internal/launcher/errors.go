package launcher

import (
	"fmt"
	"time"
)

// resourceError signals that the bundled kuuzuki executable could not be
// resolved. This is a packaging defect, not a runtime condition.
type resourceError struct{ msg string }

func (e resourceError) Error() string { return e.msg }

// ErrResource constructs a resourceError.
func ErrResource(msg string) error { return resourceError{msg: msg} }

// IsResource reports whether err indicates an unresolvable server executable.
func IsResource(err error) bool {
	_, ok := err.(resourceError)
	return ok
}

// spawnError signals an OS-level process creation failure.
type spawnError struct {
	bin string
	err error
}

func (e spawnError) Error() string {
	return fmt.Sprintf("failed to start kuuzuki server %s: %v", e.bin, e.err)
}

func (e spawnError) Unwrap() error { return e.err }

// ErrSpawn constructs a spawnError wrapping the underlying OS error.
func ErrSpawn(bin string, err error) error { return spawnError{bin: bin, err: err} }

// IsSpawn reports whether err indicates a process creation failure.
func IsSpawn(err error) bool {
	_, ok := err.(spawnError)
	return ok
}

// timeoutError signals that a spawned server never became healthy before the
// launch deadline and has been terminated.
type timeoutError struct{ deadline time.Duration }

func (e timeoutError) Error() string {
	return fmt.Sprintf("server failed to become healthy within %s", e.deadline)
}

// ErrLaunchTimeout constructs a timeoutError for the given deadline.
func ErrLaunchTimeout(deadline time.Duration) error { return timeoutError{deadline: deadline} }

// IsTimeout reports whether err indicates an expired launch deadline.
func IsTimeout(err error) bool {
	_, ok := err.(timeoutError)
	return ok
}
