package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrNoPendingOrder  = errors.New("no pending order")
	ErrFlowInactive    = errors.New("flow is not active")

	// ErrInvalidExecContext marks a repository call with an unusable
	// transaction handle.
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
