package arena

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrSessionNotFound = errors.New("session_not_found")
	ErrNotAssigned     = errors.New("not_assigned")
	ErrInactive        = errors.New("game_not_active")
	ErrNotYourTurn     = errors.New("not_your_turn")
	ErrIllegalMove     = errors.New("illegal_move")
	ErrSeatTaken       = errors.New("seat_taken")
	ErrAlreadyAssigned = errors.New("already_assigned")
	ErrCreatorClaim    = errors.New("creator_cannot_claim")
	// ErrNotifyFailed reports a failed push after the state change already
	// stuck. The mover's move stands; only the broadcast was lost.
	ErrNotifyFailed = errors.New("notify_failed")
)
