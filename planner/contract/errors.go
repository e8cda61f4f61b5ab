package contract

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrNoProposal    = errors.New("no active proposal")
	ErrInvalidOption = errors.New("chosen option does not match the proposal")
)
