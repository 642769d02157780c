package persist

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreRequired is returned by New when no store is given.
	ErrStoreRequired = errors.New("persist: store is required")
	// ErrKeyRequired is returned by New when the key is blank.
	ErrKeyRequired = errors.New("persist: key is required")
)

// OpError captures the failed operation and key alongside the cause.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persist: %s key=%q: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapOpError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Key: key, Err: err}
}
