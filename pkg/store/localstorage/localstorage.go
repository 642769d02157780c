//go:build js && wasm

package localstorage

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/goliatone/go-persist/pkg/store"
)

// Store wraps a JS Storage object (window.localStorage by default).
type Store struct {
	storage js.Value
}

var _ store.Store = (*Store)(nil)

// New binds to the global localStorage.
func New() (*Store, error) {
	return Wrap(js.Global().Get("localStorage"))
}

// Wrap binds to any object implementing the Web Storage API, such as
// sessionStorage.
func Wrap(storage js.Value) (*Store, error) {
	if storage.IsUndefined() || storage.IsNull() {
		return nil, fmt.Errorf("localstorage: storage object is not available")
	}
	return &Store{storage: storage}, nil
}

func (s *Store) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	if err := store.CheckKey(ctx, key); err != nil {
		return "", false, err
	}
	defer recoverJSError("getItem", key, &err)

	v := s.storage.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// SetItem surfaces QuotaExceededError and friends as errors.
func (s *Store) SetItem(ctx context.Context, key, value string) (err error) {
	if err := store.CheckKey(ctx, key); err != nil {
		return err
	}
	defer recoverJSError("setItem", key, &err)

	s.storage.Call("setItem", key, value)
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) (err error) {
	if err := store.CheckKey(ctx, key); err != nil {
		return err
	}
	defer recoverJSError("removeItem", key, &err)

	s.storage.Call("removeItem", key)
	return nil
}

// recoverJSError turns a thrown JS exception (a panic with js.Error) into err.
func recoverJSError(op, key string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	if jsErr, ok := r.(js.Error); ok {
		*err = fmt.Errorf("localstorage: %s %q: %w", op, key, jsErr)
		return
	}
	panic(r)
}
