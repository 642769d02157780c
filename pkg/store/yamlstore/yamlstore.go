// Package yamlstore implements store.Store backed by a flat YAML file.
//
// The file holds one mapping of string keys to string values. Writes take an
// exclusive flock on "<path>.lock", re-read the file so changes from other
// processes are kept, apply the mutation and atomically rename a temp file
// over the target. Reads take a shared lock.
package yamlstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/goliatone/go-persist/pkg/store"

	"gopkg.in/yaml.v3"
)

// Store implements store.Store using a YAML file on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New returns a Store that reads from and writes to path. The file and its
// directory are created on the first SetItem.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("yamlstore: path is required")
	}
	return &Store{path: filepath.Clean(path)}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := store.CheckKey(ctx, key); err != nil {
		return "", false, err
	}

	var (
		value string
		ok    bool
	)
	err := s.withLock(syscall.LOCK_SH, false, func(data map[string]string) bool {
		value, ok = data[key]
		return false
	})
	if err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := store.CheckKey(ctx, key); err != nil {
		return err
	}
	return s.withLock(syscall.LOCK_EX, true, func(data map[string]string) bool {
		data[key] = value
		return true
	})
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := store.CheckKey(ctx, key); err != nil {
		return err
	}
	return s.withLock(syscall.LOCK_EX, false, func(data map[string]string) bool {
		if _, ok := data[key]; !ok {
			return false
		}
		delete(data, key)
		return true
	})
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// withLock acquires the file lock in mode, loads the current contents and
// calls fn. When fn reports a change the map is written back atomically.
// create controls whether a missing directory is created before locking.
func (s *Store) withLock(mode int, create bool, fn func(map[string]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("yamlstore: creating directory: %w", err)
		}
	} else if _, err := os.Stat(dir); os.IsNotExist(err) {
		fn(map[string]string{})
		return nil
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("yamlstore: opening lock: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), mode); err != nil {
		return fmt.Errorf("yamlstore: acquiring lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	data, err := s.readFromDisk()
	if err != nil {
		return err
	}
	if !fn(data) {
		return nil
	}

	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("yamlstore: encoding: %w", err)
	}
	return atomicWrite(s.path, raw)
}

func (s *Store) readFromDisk() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("yamlstore: reading file: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	data := map[string]string{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("yamlstore: parsing file: %w", err)
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

// atomicWrite writes data to a temporary sibling file and renames it over path.
func atomicWrite(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("yamlstore: generating temp suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(randBytes)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("yamlstore: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best effort cleanup
		return fmt.Errorf("yamlstore: renaming temp file: %w", err)
	}
	return nil
}
