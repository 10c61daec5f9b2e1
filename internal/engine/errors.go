package engine

import "errors"

// User-visible denials. Handlers map these to HTTP statuses with
// errors.Is; anything else is treated as a store failure.
var (
	ErrBadPassword     = errors.New("invalid room password")
	ErrBanned          = errors.New("user is banned from this room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotOwner        = errors.New("message belongs to another user")
	ErrNotInRoom       = errors.New("user has not joined this room")
)
