// Package counter persists the single integer this whole tool exists to
// increment.
package counter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the counter file does not parse as a
// non-negative decimal integer.
var ErrMalformed = errors.New("counter: malformed value")

// Store reads and writes the persistent counter.
type Store interface {
	// Read returns the current counter value. The file must exist.
	Read() (int, error)

	// Write overwrites the counter with the given value.
	Write(value int) error

	// Increment advances the counter by exactly one and returns the new
	// value. Not idempotent: calling twice adds two.
	Increment() (int, error)
}

// FileStore is a Store backed by a plain-text file holding the decimal
// counter. Single-writer only; cross-process exclusion is the caller's
// responsibility.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read implements Store. A missing file surfaces as fs.ErrNotExist;
// non-numeric content as ErrMalformed. The file is never modified.
func (s *FileStore) Read() (int, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("counter: reading %s: %w", s.path, err)
	}

	text := strings.TrimSpace(string(raw))
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s holds %q", ErrMalformed, s.path, text)
	}

	return value, nil
}

// Write implements Store. The value is written to a temp file in the same
// directory and renamed into place so a crash mid-write cannot truncate
// the counter.
func (s *FileStore) Write(value int) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".number-*")
	if err != nil {
		return fmt.Errorf("counter: creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(strconv.Itoa(value))
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("counter: writing %s: %w", s.path, errors.Join(writeErr, closeErr))
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("counter: replacing %s: %w", s.path, err)
	}
	return nil
}

// Increment implements Store.
func (s *FileStore) Increment() (int, error) {
	current, err := s.Read()
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := s.Write(next); err != nil {
		return 0, err
	}
	return next, nil
}
