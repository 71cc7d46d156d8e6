package application

import (
	"errors"
	"fmt"

	"github.com/example/outreach-tracker/internal/persistence"
)

// maxIDAttempts bounds how often a create retries after an identifier collision.
const maxIDAttempts = 5

// createWithUniqueID calls create with freshly generated identifiers until the
// store accepts one.
func createWithUniqueID[T any](newID func() string, create func(id string) (T, error)) (T, error) {
	var zero T
	for i := 0; i < maxIDAttempts; i++ {
		created, err := create(newID())
		if errors.Is(err, persistence.ErrDuplicate) {
			continue
		}
		return created, err
	}
	return zero, fmt.Errorf("allocate identifier: %d collisions in a row", maxIDAttempts)
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrReferentialIntegrity), errors.Is(err, persistence.ErrReferentialIntegrity):
		return ErrReferentialIntegrity
	case errors.Is(err, persistence.ErrOutOfSequence):
		return NewValidationError("attemptNumber", "attemptNumber must directly follow the person's latest attempt")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return NewValidationError("kind", "kind is not a supported engagement kind")
	}
	return err
}
