package service

import (
	"errors"
	"fmt"

	"resort/internal/database"
)

// Every error returned by a service wraps exactly one of these, or is an
// unexpected failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrForbidden       = errors.New("forbidden")
)

// translate maps storage errors onto the service taxonomy, keeping the
// original error in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidState), errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, database.ErrInsufficientStock):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, database.ErrInvalidQuantity), errors.Is(err, database.ErrUnknownItemKind):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	default:
		return err
	}
}
