package oxt

import (
	"errors"
	"fmt"

	"github.com/lovewebshell/oxtpack/internal/file"
)

var (
	// ErrInvalidPath means a source is missing or unreadable, or an archive
	// path normalizes to nothing.
	ErrInvalidPath = file.ErrInvalidPath
	// ErrArchiveWrite means the output archive could not be created or written.
	ErrArchiveWrite = errors.New("unable to write archive")
	// ErrAlreadyClosed is returned by every mutation after Close, including a
	// second Close.
	ErrAlreadyClosed = errors.New("package already closed")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func invalidPath(op, path string, cause error) error {
	if errors.Is(cause, ErrInvalidPath) {
		return &PathError{Op: op, Path: path, Err: cause}
	}
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidPath, cause)}
}

func writeFailure(op, path string, cause error) error {
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrArchiveWrite, cause)}
}
