package library

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers branch on them with errors.Is; the returned errors
// wrap them with the offending ids.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrValidation         = errors.New("validation failed")

	ErrBookNotFound   = fmt.Errorf("book %w", ErrNotFound)
	ErrMemberNotFound = fmt.Errorf("member %w", ErrNotFound)

	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrDuplicateLoan     = errors.New("member already has this book on loan")
	ErrNoMatchingLoan    = errors.New("no matching outstanding loan")
)
