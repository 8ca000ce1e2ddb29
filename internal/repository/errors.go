package repository

import (
	"errors"
	"fmt"

	"docbase/internal/models"
)

// ErrDuplicateFingerprint reports that another writer inserted a document
// with the same fingerprint between our lookup and our insert. The database
// uniqueness constraint is the arbiter for this race; the caller may resolve
// it by re-reading the now-existing row.
var ErrDuplicateFingerprint = errors.New("document with this fingerprint already exists")

// DimensionMismatchError reports a vector whose length is not EmbeddingDim.
// Validated at store-write time, before anything touches the database.
type DimensionMismatchError struct {
	Index int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector %d has dimension %d, want %d", e.Index, e.Got, models.EmbeddingDim)
}

// StoreError wraps a generic persistence failure. Any in-flight transaction
// has been rolled back by the time it is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
