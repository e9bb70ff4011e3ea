package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/creator-league/internal/domain/contest"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrCapacityExceeded      = errors.New("submission capacity exceeded")
	ErrIntegrityViolation    = errors.New("integrity violation")
	ErrConflict              = errors.New("conflict")
	ErrNotConfirmed          = errors.New("confirmation required")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// translateStoreError lifts repository sentinels into usecase sentinels,
// keeping the original message.
func translateStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, contest.ErrNotFound):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case errors.Is(err, contest.ErrCapacityExceeded):
		return fmt.Errorf("%w: %s: %v", ErrCapacityExceeded, op, err)
	case errors.Is(err, contest.ErrVersionConflict), errors.Is(err, contest.ErrDuplicateID):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
