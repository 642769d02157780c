package store

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned when a key is empty or whitespace.
var ErrInvalidKey = errors.New("store: invalid key")

// Store reads and writes one string value per key.
//
// GetItem reports ok=false for a missing key without an error. RemoveItem of a
// missing key is a no-op. SetItem replaces any previous value in full.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// CheckKey validates key and the context in the order every implementation
// applies them.
func CheckKey(ctx context.Context, key string) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
