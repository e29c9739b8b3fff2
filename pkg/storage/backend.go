// Package storage defines the Storage Backend capability used by the upload
// dispatcher and its object-storage implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ConflictMode governs what happens when the destination path already holds content.
type ConflictMode string

const (
	// ModeAdd never replaces existing content; the backend picks a free name.
	ModeAdd ConflictMode = "add"
	// ModeOverwrite replaces existing content at the path.
	ModeOverwrite ConflictMode = "overwrite"
)

// MaxRenameAttempts bounds the "name (n).ext" search under ModeAdd.
const MaxRenameAttempts = 100

var (
	ErrPayloadTooLarge = errors.New("storage: payload too large")
	ErrConflict        = errors.New("storage: path already exists")
	ErrInvalidPath     = errors.New("storage: invalid path")
	ErrInvalidMode     = errors.New("storage: invalid conflict mode")
)

func (m ConflictMode) Valid() bool {
	return m == ModeAdd || m == ModeOverwrite
}

func ParseConflictMode(s string) (ConflictMode, error) {
	m := ConflictMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Backend accepts content for a destination path and reports the path it was
// committed under, which may differ from the requested one under ModeAdd.
type Backend interface {
	Upload(ctx context.Context, path string, content []byte, mode ConflictMode) (string, error)
	Name() string
}

// putFunc writes content at p. When exclusive is set it must fail with
// ErrConflict if p is already taken.
type putFunc func(ctx context.Context, p string, exclusive bool) error

// commit applies the conflict policy on top of a provider's put.
func commit(ctx context.Context, p string, mode ConflictMode, put putFunc) (string, error) {
	switch mode {
	case ModeOverwrite:
		if err := put(ctx, p, false); err != nil {
			return "", err
		}
		return p, nil
	case ModeAdd:
		for n := 0; n < MaxRenameAttempts; n++ {
			candidate := candidateName(p, n)
			err := put(ctx, candidate, true)
			if err == nil {
				return candidate, nil
			}
			if !errors.Is(err, ErrConflict) {
				return "", err
			}
		}
		return "", fmt.Errorf("%w: no free name for %s after %d attempts", ErrConflict, p, MaxRenameAttempts)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// candidateName returns p for n == 0 and "stem (n).ext" otherwise.
func candidateName(p string, n int) string {
	if n == 0 {
		return p
	}
	dir, base := path.Split(p)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s%s (%d)%s", dir, stem, n, ext)
}

// validatePath rejects paths that cannot name an object.
func validatePath(p string) error {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.HasSuffix(p, "/") {
		return fmt.Errorf("%w: %q names a folder", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("%w: %q contains a relative segment", ErrInvalidPath, p)
		}
	}
	return nil
}

// objectKey maps a slash-separated destination path to a key under prefix.
func objectKey(prefix, p string) string {
	key := strings.TrimLeft(p, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

type timeoutBackend struct {
	Backend
	timeout time.Duration
}

// WithTimeout bounds every Upload call on b. A non-positive timeout returns b.
func WithTimeout(b Backend, timeout time.Duration) Backend {
	if timeout <= 0 {
		return b
	}
	return &timeoutBackend{Backend: b, timeout: timeout}
}

func (t *timeoutBackend) Upload(ctx context.Context, p string, content []byte, mode ConflictMode) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Backend.Upload(ctx, p, content, mode)
}
