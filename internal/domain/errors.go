package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of block operations.
type ErrorKind string

const (
	// KindAddressing means an id or path does not resolve in the current
	// tree. Callers treat the mutation as a no-op.
	KindAddressing ErrorKind = "addressing"
	// KindRefusal means the mutation would break a structural invariant.
	// The tree is left unchanged.
	KindRefusal ErrorKind = "refusal"
	// KindConstruction means a block could not be built. It signals a
	// programming error and must reach the user.
	KindConstruction ErrorKind = "construction"
)

// Addressing failures.
var (
	ErrBlockNotFound = errors.New("block not found")
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotASlot      = errors.New("path does not address a layout column")
	ErrStalePath     = errors.New("path does not resolve")
	ErrStaleTarget   = errors.New("drop target changed since drag over")
	ErrOutOfRange    = errors.New("index out of range")
)

// Structural refusals.
var (
	ErrLastRow       = errors.New("table must keep at least one row")
	ErrLastColumn    = errors.New("table must keep at least one column")
	ErrLastImage     = errors.New("image grid must keep at least one image")
	ErrColumnsRange  = errors.New("column count out of range")
	ErrRagged        = errors.New("table cells must be rectangular")
	ErrFieldMismatch = errors.New("field does not belong to block type")
	ErrMoveIntoSelf  = errors.New("cannot move a layout into itself")
	ErrLocked        = errors.New("section is locked")
	ErrNotDeletable  = errors.New("section cannot be deleted")
	ErrNotDragging   = errors.New("no drag in progress")
)

// Construction errors.
var (
	ErrUnknownType  = errors.New("unknown block type")
	ErrMalformed    = errors.New("malformed block")
	ErrDuplicateIDs = errors.New("duplicate block id")
)

// Error carries the kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Addressing wraps err as an addressing failure of op.
func Addressing(op string, err error) error {
	return &Error{Kind: KindAddressing, Op: op, Err: err}
}

// Refusal wraps err as a structural refusal of op.
func Refusal(op string, err error) error {
	return &Error{Kind: KindRefusal, Op: op, Err: err}
}

// Construction wraps err as a construction error of op.
func Construction(op string, err error) error {
	return &Error{Kind: KindConstruction, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsLocal reports whether err is handled by leaving the document as it
// was: addressing failures and structural refusals.
func IsLocal(err error) bool {
	k := KindOf(err)
	return k == KindAddressing || k == KindRefusal
}
