package game

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the class of requests rejected before any state change.
	ErrValidation = errors.New("invalid request")

	ErrEmptyWord      = fmt.Errorf("%w: word cannot be empty", ErrValidation)
	ErrMissingSession = fmt.Errorf("%w: no active game session", ErrValidation)
	ErrGameOver       = fmt.Errorf("%w: game is already over, start a new game to continue", ErrValidation)

	ErrSessionNotFound = errors.New("game session not found")

	// ErrOracleUnavailable is the retryable class of ranking service failures.
	ErrOracleUnavailable = errors.New("ranking service unavailable")
	ErrOracleTimeout     = fmt.Errorf("%w: timed out", ErrOracleUnavailable)
)

// IsRetryable reports whether the same request may simply be sent again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable)
}
