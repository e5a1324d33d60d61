package game

import "errors"

// Sentinel kinds for game type errors.
var (
	ErrUnknownType = errors.New("unknown game type")
)
