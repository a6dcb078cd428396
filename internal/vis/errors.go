package vis

import "errors"

// Errors returned by the overlay functions.
var (
	ErrShape           = errors.New("vis: unexpected tensor shape")
	ErrTooFewProposals = errors.New("vis: fewer proposals than required")
)
