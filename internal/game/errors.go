package game

import "errors"

var (
	ErrDuplicateName = errors.New("duplicate_name")
	ErrInvalidState  = errors.New("invalid_state")
	ErrWrongPhase    = errors.New("wrong_phase")
)
