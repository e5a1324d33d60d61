package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPlayerInactive = errors.New("player is deactivated")
	ErrLimitExceeded  = errors.New("leaderboard limit exceeded")
	ErrAlreadyRunning = errors.New("recomputation already running")
)
