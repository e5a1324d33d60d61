package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	// ErrTimeout marks a store operation that exceeded its bound.
	// Callers may retry with backoff; the aggregate is never left
	// partially updated.
	ErrTimeout = errors.New("store operation timed out")
	ErrClosed  = errors.New("store is closed")
	// ErrNoop may be returned by an UpdateAggregate apply func to abandon
	// the write. The store leaves the aggregate untouched (no version bump)
	// and surfaces ErrNoop to the caller.
	ErrNoop = errors.New("aggregate unchanged")
)
