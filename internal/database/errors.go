package database

import "fmt"

// StorageError wraps any failure surfaced by the Store: constraint
// violations, connectivity loss, malformed input. It is fatal to the
// current cycle and is not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
