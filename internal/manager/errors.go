package manager

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by every mutation command when the manager is
// not in the Connected state.
var ErrNotConnected = errors.New("manager: not connected")

// ErrDuplicateNode is returned by AddNode when a member with the same id
// already exists.
var ErrDuplicateNode = errors.New("manager: node already exists")

// StoreError wraps a coordination-store client failure surfaced to a
// mutation command's caller. Refresh and watcher-driven failures are
// logged and swallowed instead (see doc.go); only commands get a StoreError
// back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("manager: store op %q failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
