package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no live workspace matches a query.
	ErrNotFound = errors.New("workspace not found")
	// ErrAmbiguous is returned when several workspaces match and nobody can choose.
	ErrAmbiguous = errors.New("ambiguous workspace name")
)

// NotFoundError lists the live workspaces so the user can correct the query.
type NotFoundError struct {
	Query string
	Names []string
}

func (e *NotFoundError) Error() string {
	if len(e.Names) == 0 {
		return fmt.Sprintf("%s: %q (no workspaces exist yet)", ErrNotFound, e.Query)
	}
	return fmt.Sprintf("%s: %q (available: %s)", ErrNotFound, e.Query, strings.Join(e.Names, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AmbiguousError carries the ranked matches when no chooser is available.
type AmbiguousError struct {
	Query   string
	Matches []RankedWorkspace
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		names[i] = m.Candidate.Name
	}
	return fmt.Sprintf("%s: %q matches %s", ErrAmbiguous, e.Query, strings.Join(names, ", "))
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguous
}
