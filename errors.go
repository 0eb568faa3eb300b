package grove

import (
	"errors"
)

var (
	// ErrBadParam indicates an invalid store or data configuration.
	ErrBadParam = errors.New("grove: invalid configuration parameter")

	// ErrInvalidArg indicates an invalid argument: a key longer than the
	// configured key size, a buffer too small, or a value requested from
	// a lookup that found nothing.
	ErrInvalidArg = errors.New("grove: invalid argument")

	// ErrNoMemory indicates an allocation failure in the engine.
	ErrNoMemory = errors.New("grove: out of memory")

	// ErrStorage indicates a failure in the underlying engine or io.
	ErrStorage = errors.New("grove: storage failure")

	// ErrInvalidState indicates the storage core could not be created or
	// mounted.
	ErrInvalidState = errors.New("grove: invalid state")
)

// Errno maps an error returned by this package to an errno style integer,
// for callers keeping the classic interface: 0 on success, EINVAL for
// parameter and argument violations, ENOMEM for allocation failure, and
// EIO for everything that went wrong below the façade.
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrBadParam), errors.Is(err, ErrInvalidArg):
		return 22 // EINVAL
	case errors.Is(err, ErrNoMemory):
		return 12 // ENOMEM
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrStorage):
		return 5 // EIO
	}
	return 5
}
