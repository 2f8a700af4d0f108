package grant

import "errors"

// Engine error taxonomy. Validation happens before any mutation, so a
// returned error always means the stored catalog was left untouched.
// The API layer classifies these with errors.Is and maps them to HTTP status.
var (
	// validation
	ErrInvalidAmount    = errors.New("disbursement amount must be greater than zero")
	ErrInvalidStatus    = errors.New("invalid disbursement status")
	ErrInvalidPeriod    = errors.New("reporting period start must not be after end")
	ErrSanctionExceeded = errors.New("request exceeds total sanctioned amount")

	// not found
	ErrStartupNotFound      = errors.New("no grant catalog for startup")
	ErrGrantNotFound        = errors.New("grant not found")
	ErrDisbursementNotFound = errors.New("disbursement not found")
	ErrMilestoneNotFound    = errors.New("milestone not found")

	// state
	ErrReleasedImmutable = errors.New("released disbursement cannot change status")
	ErrVersionConflict   = errors.New("catalog was modified concurrently")
)
