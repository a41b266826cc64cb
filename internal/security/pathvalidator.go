package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RootErrorKind tells why a cleaning root was refused
type RootErrorKind int

const (
	RootNotFound RootErrorKind = iota
	RootNotDirectory
	RootProtected
	RootInaccessible
)

// RootError is returned by ValidateRoot
type RootError struct {
	Path string
	Kind RootErrorKind
	Err  error
}

// Error implements the error interface
func (e *RootError) Error() string {
	switch e.Kind {
	case RootNotFound:
		return fmt.Sprintf("path %s does not exist", e.Path)
	case RootNotDirectory:
		return fmt.Sprintf("path %s is not a directory", e.Path)
	case RootProtected:
		return fmt.Sprintf("refusing to clean protected path: %s", e.Path)
	default:
		return fmt.Sprintf("cannot access path %s: %v", e.Path, e.Err)
	}
}

// Unwrap returns the underlying filesystem error
func (e *RootError) Unwrap() error {
	return e.Err
}

// PathValidator checks cleaning roots against protected system paths
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a PathValidator for the given protected paths
func NewPathValidator(protected []string) *PathValidator {
	pv := &PathValidator{}
	for _, p := range protected {
		pv.AddProtectedPath(p)
	}
	return pv
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedPaths = append(pv.protectedPaths, filepath.Clean(path))
}

// ValidateRoot checks that path exists, is a directory and is not itself a
// protected path. It returns the absolute, cleaned root.
func (pv *PathValidator) ValidateRoot(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", &RootError{Path: path, Kind: RootInaccessible, Err: err}
	}

	// Stat follows symlinks: a root given as a link to a directory is fine
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &RootError{Path: path, Kind: RootNotFound, Err: err}
		}
		return "", &RootError{Path: path, Kind: RootInaccessible, Err: err}
	}
	if !info.IsDir() {
		return "", &RootError{Path: path, Kind: RootNotDirectory}
	}

	if pv.IsProtectedRoot(absPath) || pv.IsProtectedRoot(Canonicalize(absPath)) {
		return "", &RootError{Path: path, Kind: RootProtected}
	}

	return absPath, nil
}

// IsProtectedRoot reports whether path is exactly one of the protected
// paths. Directories below a protected path may still be cleaned.
func (pv *PathValidator) IsProtectedRoot(path string) bool {
	cleanPath := filepath.Clean(path)
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return true
		}
	}
	return false
}

// Canonicalize resolves symlinks and returns the absolute path. When the
// path cannot be resolved (dangling link, vanished entry) the cleaned
// absolute form of the input is returned instead.
func Canonicalize(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return absPath
	}
	return resolved
}
