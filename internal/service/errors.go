package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier  = errors.New("exam and student identifiers are required")
	ErrInvalidWindow      = errors.New("end time must be after start time")
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrExamNotFound       = errors.New("exam not found")
	ErrNotEnrolled        = errors.New("student is not enrolled in the scheduled class")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrWindowUpcoming     = errors.New("exam window has not opened yet")
	ErrWindowClosed       = errors.New("exam window is closed")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrNoAttempt          = errors.New("exam has not been started")
	ErrUnknownQuestion    = errors.New("answer references a question outside the exam")
	ErrDuplicateAnswer    = errors.New("question answered more than once")
	ErrForbidden          = errors.New("submission belongs to another student")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired or revoked")
)

// PersistenceError wraps a store or transport failure of a lifecycle operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
