package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an action is not valid in the current phase.
	ErrInvalidState = errors.New("action not valid in current session state")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already locked for this question")
	// ErrLifelineUsed is returned when a lifeline was already spent on this question.
	ErrLifelineUsed = errors.New("lifeline already used for this question")
	// ErrAlreadyRegistered is returned when a connection registers twice.
	ErrAlreadyRegistered = errors.New("participant already registered")
	// ErrNotAllowed is returned when the allow-list rejects a registration.
	ErrNotAllowed = errors.New("email not on the allow-list")
	// ErrLifelineDisabled is returned when the operator turned that lifeline off.
	ErrLifelineDisabled = errors.New("lifeline disabled")
	// ErrSetNotFound indicates an unknown question set name.
	ErrSetNotFound = errors.New("question set not found")
	// ErrParticipantNotFound is returned when a participant tries to act before registering.
	ErrParticipantNotFound = errors.New("participant not found")
)

// ValidationError describes malformed question content rejected at ingestion.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid question content: " + e.Detail
}

func validationf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}
