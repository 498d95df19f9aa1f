package persistence

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrBatchTooLarge is returned when DeleteBatch receives more than MaxBatchSize ids
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// ErrDuplicateID is returned when a record with the same id already exists
	ErrDuplicateID = errors.New("duplicate id")
)
