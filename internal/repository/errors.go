package repository

import (
	"errors"

	"github.com/stemsi/etesthub-backend/internal/remote"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means a submission already exists for the (exam, student) pair.
	ErrDuplicate = errors.New("duplicate record")
	// ErrCheckViolation means the store rejected the record's invariants.
	ErrCheckViolation = errors.New("record violates store constraint")
	// ErrFinalized means a conditional update found the submission already graded.
	ErrFinalized = errors.New("submission already finalized")
)

// fromRemote maps data-service errors onto repository sentinels.
func fromRemote(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, remote.ErrConflict):
		return ErrDuplicate
	default:
		return err
	}
}
