package source

import (
	"errors"
	"fmt"
)

var (
	// ErrIncludeNotFound is returned when an include target cannot be located.
	ErrIncludeNotFound = errors.New("include not found")
	// ErrInvalidInclude is returned when an include directive is pushed back.
	// Includes are only honored on the forward path.
	ErrInvalidInclude = errors.New("include directive cannot be pushed back")
	// ErrIncludeDepth is returned when includes nest deeper than allowed,
	// which is usually an include cycle.
	ErrIncludeDepth = errors.New("include nesting too deep")
	// ErrBadIndent is returned for lines mixing tabs into space indentation.
	ErrBadIndent = errors.New("bad indentation")
)

// IncludeError describes a failed include lookup.
type IncludeError struct {
	Name string // requested name
	Dir  string // directory searched first
	Err  error
}

func (e *IncludeError) Error() string {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if e.Err != nil && !errors.Is(e.Err, ErrIncludeNotFound) {
		return fmt.Sprintf("include %q (from %s): %v", e.Name, dir, e.Err)
	}
	return fmt.Sprintf("include %q not found (searched %s)", e.Name, dir)
}

func (e *IncludeError) Unwrap() error {
	if e.Err == nil {
		return ErrIncludeNotFound
	}
	return e.Err
}
