// Package resolve turns a typed workspace name into one live workspace:
// exact names win outright, otherwise names are fuzzy matched, ranked with
// workspace context and, when several remain, handed to a chooser.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sergeknystautas/canopy/internal/workspace"
)

// StatusProvider supplies workspace paths and git snapshots.
type StatusProvider interface {
	Path(project, name string) string
	Status(ctx context.Context, dir string) (workspace.Status, bool)
}

// SessionProvider reports whether a workspace has a running session.
type SessionProvider interface {
	Exists(ctx context.Context, project, workspace string) bool
}

// Chooser asks the user to pick one of the ranked matches. ok is false when
// the user aborted the selection.
type Chooser interface {
	Choose(ctx context.Context, query string, ranked []RankedWorkspace) (index int, ok bool, err error)
}

// Outcome tells how a query was resolved.
type Outcome int

const (
	OutcomeExact     Outcome = iota // query named a live workspace
	OutcomeMatched                  // single fuzzy match, or best match under force
	OutcomeChosen                   // picked by the user
	OutcomeCancelled                // user aborted the chooser
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExact:
		return "exact"
	case OutcomeMatched:
		return "matched"
	case OutcomeChosen:
		return "chosen"
	case OutcomeCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is a resolved workspace. Workspace is zero when cancelled.
type Result struct {
	Outcome   Outcome
	Query     string
	Workspace Candidate
	Ranked    []RankedWorkspace // empty for exact hits
}

// Cancelled reports whether the caller should do nothing.
func (r Result) Cancelled() bool {
	return r.Outcome == OutcomeCancelled
}

// Substituted reports whether the resolved name differs from what was typed.
func (r Result) Substituted() bool {
	return !r.Cancelled() && r.Workspace.Name != r.Query
}

// Resolver resolves workspace names for one caller.
type Resolver struct {
	workspaces StatusProvider
	sessions   SessionProvider
	chooser    Chooser
}

// New returns a Resolver. sessions and chooser may be nil: no session is
// then considered active, and ambiguous queries fail with *AmbiguousError.
func New(workspaces StatusProvider, sessions SessionProvider, chooser Chooser) *Resolver {
	return &Resolver{workspaces: workspaces, sessions: sessions, chooser: chooser}
}

// Resolve maps query onto one of the live workspace names of project. With
// force the best match is taken without asking.
func (r *Resolver) Resolve(ctx context.Context, project, query string, live []string, force bool) (Result, error) {
	res := Result{Query: query}
	if strings.TrimSpace(query) == "" {
		return res, &NotFoundError{Query: query, Names: live}
	}

	for _, name := range live {
		if name == query {
			res.Outcome = OutcomeExact
			res.Workspace = Candidate{Name: name, Path: r.workspaces.Path(project, name)}
			return res, nil
		}
	}

	candidates := r.Candidates(ctx, project, live)
	matches := MatchCandidates(query, candidates)
	if len(matches) == 0 {
		return res, &NotFoundError{Query: query, Names: live}
	}

	res.Ranked = Rank(matches)
	if len(res.Ranked) == 1 || force {
		res.Outcome = OutcomeMatched
		res.Workspace = res.Ranked[0].Candidate
		return res, nil
	}

	if r.chooser == nil {
		return res, &AmbiguousError{Query: query, Matches: res.Ranked}
	}
	idx, ok, err := r.chooser.Choose(ctx, query, res.Ranked)
	if err != nil {
		return res, fmt.Errorf("workspace selection failed: %w", err)
	}
	if !ok {
		res.Outcome = OutcomeCancelled
		return res, nil
	}
	if idx < 0 || idx >= len(res.Ranked) {
		return res, fmt.Errorf("workspace selection out of range: %d", idx)
	}
	res.Outcome = OutcomeChosen
	res.Workspace = res.Ranked[idx].Candidate
	return res, nil
}

// Candidates snapshots every live workspace, one status and one session
// query each.
func (r *Resolver) Candidates(ctx context.Context, project string, live []string) []Candidate {
	candidates := make([]Candidate, 0, len(live))
	for _, name := range live {
		c := Candidate{Name: name, Path: r.workspaces.Path(project, name)}
		if st, ok := r.workspaces.Status(ctx, c.Path); ok {
			c.Branch = st.Branch
			c.Ahead = st.Ahead
			c.Behind = st.Behind
			c.UncommittedChanges = st.UncommittedChanges
			c.LastCommitSubject = st.LastCommitSubject
			if !st.LastCommit.IsZero() {
				c.LastCommit = humanize.Time(st.LastCommit)
			}
		}
		if r.sessions != nil {
			c.HasActiveSession = r.sessions.Exists(ctx, project, name)
		}
		candidates = append(candidates, c)
	}
	return candidates
}
