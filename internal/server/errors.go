package server

import "errors"

// Sentinel errors returned by the store and the claim coordinator. Handlers
// map them onto the stable error codes of the HTTP API.
var (
	ErrNotFound            = errors.New("not found")
	ErrInactive            = errors.New("resource is inactive")
	ErrDuplicateClaim      = errors.New("already claimed")
	ErrHasFinds            = errors.New("spot has finds")
	ErrGenerationExhausted = errors.New("could not generate a unique code")
)

var errNoSession = errors.New("no valid session")

// ValidationError carries a user-facing message for malformed input, e.g. a
// claim code with the wrong shape or a fuzzy radius outside its bounds.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Stable error codes carried in failure responses.
const (
	codeValidation          = "validation_error"
	codeNotFound            = "not_found"
	codeInactive            = "inactive"
	codeDuplicateClaim      = "duplicate_claim"
	codeConstraintViolation = "constraint_violation"
	codeRateLimited         = "rate_limited"
)
