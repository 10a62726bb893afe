package binding

import "errors"

var (
	// ErrNotBound wraps panics raised by accessors used on an atom the
	// binder holds no active subscription for.
	ErrNotBound = errors.New("atom is not bound to this binder")

	// ErrNotWritable wraps panics raised by Write and ReadWrite on
	// derived or async atoms.
	ErrNotWritable = errors.New("atom is not writable")

	// ErrDetached wraps panics raised by accessors used on a binder
	// that is not attached.
	ErrDetached = errors.New("binder is detached")

	// ErrAwaitTimeout is returned by AwaitResult when the atom reaches
	// neither Success nor Failure within the timeout.
	ErrAwaitTimeout = errors.New("await timed out before the atom resolved")
)
