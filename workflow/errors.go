package workflow

import "errors"

// Sentinel errors returned by the workflow. Controllers map them to
// HTTP statuses; the messages mirror what callers see.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrMissingEventID    = errors.New("event ID is required")
	ErrMissingDate       = errors.New("please select a date")
	ErrInvalidDate       = errors.New("selected date is not valid for this event")
	ErrAlreadyVoted      = errors.New("you already voted")
	ErrCreatorCannotVote = errors.New("event creator cannot vote for their own event")
	ErrNotInvited        = errors.New("you are not invited to vote on this event")
	ErrNotCreator        = errors.New("only the event creator can perform this action")
	ErrAlreadyFinalized  = errors.New("event date has already been finalized and cannot be changed")
)
