package domain

import "errors"

// Domain errors. Only ErrInvalidTransition and ErrSessionNotFound are ever
// surfaced to callers; everything else degrades inside the round.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionEnded        = errors.New("session has ended")
	ErrInvalidTransition   = errors.New("invalid phase transition")
	ErrInvalidPhase        = errors.New("invalid action for current phase")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPlayerEliminated    = errors.New("player has been eliminated")
	ErrNotAwaitingAction   = errors.New("not awaiting a player night action")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrEmptyMessage        = errors.New("message cannot be empty")
)
