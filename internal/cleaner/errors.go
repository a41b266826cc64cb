package cleaner

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrorReason categorizes why a filesystem operation failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError is a failed removal of an ignored entry. It always ends the run.
type DeletionError struct {
	Path     string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("❌ Permission denied while deleting %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("❌ %s is being used (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("❌ %s disappeared before it could be deleted", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("❌ Invalid or unsafe path: %s", e.Path)
	default:
		return fmt.Sprintf("❌ Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes a removal error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	return &DeletionError{
		Path:     path,
		Original: err,
		Reason:   reasonFor(err),
	}
}

func reasonFor(err error) ErrorReason {
	if os.IsNotExist(err) {
		return ErrorFileNotFound
	}
	if os.IsPermission(err) {
		return ErrorPermissionDenied
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			return ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			return ErrorFileInUse
		case syscall.ENOENT:
			return ErrorFileNotFound
		case syscall.EISDIR:
			return ErrorIsDirectory
		case syscall.EINVAL, syscall.ENAMETOOLONG:
			return ErrorInvalidPath
		}
	}

	return ErrorUnknown
}

// ListError is a failure to list a directory or stat one of its entries.
// It is reported and skipped when errors are ignored, fatal otherwise.
type ListError struct {
	Path   string
	Reason ErrorReason
	Err    error
}

func newListError(path string, err error) *ListError {
	return &ListError{Path: path, Reason: reasonFor(err), Err: err}
}

func (e *ListError) Error() string {
	return fmt.Sprintf("Error processing directory %s: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// RulesError is a rule file that could not be compiled. The directory
// holding it is not descended into; at the walk root it aborts the walk.
type RulesError struct {
	Path string
	Err  error
}

func (e *RulesError) Error() string {
	return fmt.Sprintf("Failed to parse rules at %s. skipping dir... (%v)", e.Path, e.Err)
}

func (e *RulesError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must end the run under the given
// ignore-errors setting. Deletion failures are always fatal.
func IsFatal(err error, ignoreErrors bool) bool {
	if err == nil {
		return false
	}
	var delErr *DeletionError
	if errors.As(err, &delErr) {
		return true
	}
	return !ignoreErrors
}
