package models

import (
	"errors"

	"github.com/huangang/tripplanner/pkg/daterange"
)

var (
	// ErrInvalidArgument is shared with the date-range package so callers can
	// match either with errors.Is.
	ErrInvalidArgument = daterange.ErrInvalidArgument

	// ErrPreconditionViolated is returned when an operation is applied to an
	// entity it does not concern, e.g. asking a friendship for the other party
	// on behalf of a stranger.
	ErrPreconditionViolated = errors.New("precondition violated")
)
