package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identifier already exists.
	ErrDuplicate = errors.New("persistence: duplicate identifier")
	// ErrReferentialIntegrity is returned when a record references a missing parent or
	// disagrees with the parent it references.
	ErrReferentialIntegrity = errors.New("persistence: referential integrity violation")
	// ErrOutOfSequence is returned when an email attempt number does not follow the
	// person's latest attempt, or when a non-latest attempt is removed.
	ErrOutOfSequence = errors.New("persistence: attempt out of sequence")
	// ErrConstraintViolation is returned when a value is outside the set a store accepts.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
