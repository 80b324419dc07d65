package signing

import "errors"

var (
	// ErrInvalidInputType is returned for a parameter that is not a string,
	// integer, boolean, mapping or sequence.
	ErrInvalidInputType = errors.New("signing: invalid parameter type")

	// ErrCyclicInput is returned when a parameter tree nests deeper than
	// MaxDepth, which is how a cycle through a shared *Mapping shows up.
	ErrCyclicInput = errors.New("signing: parameter tree is cyclic or too deep")
)

// MaxDepth bounds the nesting of a parameter tree.
const MaxDepth = 64
