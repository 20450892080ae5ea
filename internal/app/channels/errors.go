package channels

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	// ErrForbidden: the channel exists in the naming scheme but this player
	// may not subscribe to it.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownChannel: the name matches no known channel family. Kept
	// distinct from ErrForbidden for observability; both refuse.
	ErrUnknownChannel = errors.New("unknown_channel")
)
