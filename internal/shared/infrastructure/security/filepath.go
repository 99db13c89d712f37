// Package security validates operator supplied file paths: the SQLite
// database location and the scoring profile.
package security

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MaxProfileBytes bounds SafeReadFile. Scoring profiles are a few hundred
// bytes of YAML.
const MaxProfileBytes = 1 << 20

var (
	ErrEmptyPath     = errors.New("file path cannot be empty")
	ErrForbiddenChar = errors.New("file path contains forbidden character")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
)

// forbidden holds shell metacharacters and line breaks.
const forbidden = ";&|$`(){}<>!\n\r"

// ValidateFilePath rejects empty paths and paths with shell metacharacters,
// then returns the absolute, cleaned path with symlinks resolved. Paths that
// do not exist yet are returned unresolved.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if i := strings.IndexAny(path, forbidden); i >= 0 {
		return "", fmt.Errorf("%w %q: %s", ErrForbiddenChar, path[i], path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return abs, nil
	case err != nil:
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// SafeReadFile validates path and reads at most MaxProfileBytes from it.
func SafeReadFile(path string) ([]byte, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path validated above
	f, err := os.Open(clean)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxProfileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxProfileBytes {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, clean)
	}
	return data, nil
}
