package grove

import (
	"fmt"

	"github.com/leftmike/grove/encode"
	"github.com/leftmike/grove/trunk"
)

// LookupResult receives the outcome of Store.Lookup. It wraps a merge
// accumulator: a growable buffer that starts on a caller-owned scratch
// region and reallocates when a value outgrows it. Initialize before
// first use, reuse freely across lookups, and deinitialize when done.
type LookupResult struct {
	acc trunk.MergeAccumulator
}

// Init binds a caller-owned scratch buffer; buf may be empty or nil.
func (lr *LookupResult) Init(buf []byte) {
	lr.acc.InitWithBuffer(buf)
}

// Deinit releases anything the result grew beyond the bound buffer. The
// result must be reinitialized before reuse.
func (lr *LookupResult) Deinit() {
	lr.acc.Deinit()
}

// Found reports whether the last lookup found a live value.
func (lr *LookupResult) Found() bool {
	return lr.acc.Valid() && lr.acc.Class() != encode.Delete
}

// Value returns the found value. The slice is borrowed from the result
// and is valid until the next lookup or Deinit. Value fails when the last
// lookup found nothing.
func (lr *LookupResult) Value() ([]byte, error) {
	if !lr.Found() {
		return nil, fmt.Errorf("%w: no value found", ErrInvalidArg)
	}
	return lr.acc.Value(), nil
}
