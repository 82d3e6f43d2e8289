// Package rebase moves stacked workspaces onto a new base, one at a time,
// and keeps the stack graph pointing at whatever each child now sits on.
package rebase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/workspace"
)

var (
	ErrUncommittedChanges = errors.New("workspace has uncommitted changes")
	ErrConflict           = errors.New("rebase stopped with conflicts")
)

// VCS is the version-control surface the orchestrator needs.
type VCS interface {
	Status(ctx context.Context, dir string) (workspace.Status, bool)
	FetchRef(ctx context.Context, dir, sourcePath, branch string) (string, error)
	Rebase(ctx context.Context, dir, onto string) (workspace.RebaseResult, error)
	DeleteRef(ctx context.Context, dir, ref string) error
}

// Workspace identifies one workspace on disk.
type Workspace struct {
	Name string
	Path string
}

// Target is the new base for a rebase. Parent is the workspace that will
// become the stack parent; empty means the project base branch, after which
// the child is a root.
type Target struct {
	Parent     string
	Branch     string
	SourcePath string // repository to fetch Branch from
}

// Result classifies a rebase attempt.
type Result int

const (
	Success Result = iota
	ConflictFailure
	PreconditionFailure
	SystemFailure
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ConflictFailure:
		return "conflict"
	case PreconditionFailure:
		return "precondition"
	case SystemFailure:
		return "error"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Outcome is the result of rebasing one workspace.
type Outcome struct {
	Result          Result
	Branch          string // the workspace's branch, when known
	Detail          string
	ConflictedFiles []string
	Err             error
}

// Failed reports whether the rebase did not succeed.
func (o Outcome) Failed() bool {
	return o.Result != Success
}

// ChildOutcome pairs a workspace with its outcome in a cascade.
type ChildOutcome struct {
	Workspace Workspace
	Outcome
}

// Orchestrator runs rebases and updates the stack graph on success.
type Orchestrator struct {
	vcs    VCS
	graph  *stack.Graph
	logger *log.Logger
}

// New creates an orchestrator logging to w.
func New(vcs VCS, graph *stack.Graph, w io.Writer) *Orchestrator {
	if w == nil {
		w = io.Discard
	}
	return &Orchestrator{
		vcs:    vcs,
		graph:  graph,
		logger: log.New(w, "[rebase] ", log.LstdFlags),
	}
}

// RebaseOnto rebases ws onto the tip of target.Branch as fetched from
// target.SourcePath. The tip is pinned in a scratch ref for the duration of
// the rebase. Conflicts are left in progress for the user to resolve.
func (o *Orchestrator) RebaseOnto(ctx context.Context, ws Workspace, target Target) Outcome {
	st, ok := o.vcs.Status(ctx, ws.Path)
	if !ok {
		err := fmt.Errorf("%s is not a git working tree", ws.Path)
		return Outcome{Result: SystemFailure, Detail: err.Error(), Err: err}
	}
	if st.UncommittedChanges > 0 {
		err := fmt.Errorf("%w: %s has %d uncommitted change(s)", ErrUncommittedChanges, ws.Name, st.UncommittedChanges)
		return Outcome{Result: PreconditionFailure, Branch: st.Branch, Detail: err.Error(), Err: err}
	}

	ref, err := o.vcs.FetchRef(ctx, ws.Path, target.SourcePath, target.Branch)
	if err != nil {
		err = fmt.Errorf("failed to fetch %s: %w", target.Branch, err)
		return Outcome{Result: SystemFailure, Branch: st.Branch, Detail: err.Error(), Err: err}
	}
	defer func() {
		if err := o.vcs.DeleteRef(ctx, ws.Path, ref); err != nil {
			o.logger.Printf("failed to delete %s: %v", ref, err)
		}
	}()

	res, err := o.vcs.Rebase(ctx, ws.Path, ref)
	if err != nil {
		return Outcome{Result: SystemFailure, Branch: st.Branch, Detail: err.Error(), Err: err}
	}
	if res.Conflict {
		err := fmt.Errorf("%w: %s onto %s", ErrConflict, ws.Name, target.Branch)
		return Outcome{
			Result:          ConflictFailure,
			Branch:          st.Branch,
			Detail:          "resolve conflicts, then run git rebase --continue in " + ws.Path,
			ConflictedFiles: res.ConflictedFiles,
			Err:             err,
		}
	}

	return Outcome{Result: Success, Branch: st.Branch}
}

// CascadeRebase rebases each child onto target in order. A failure never
// stops the cascade. Successful children are re-pointed at target.Parent, or
// become roots when it is empty; failed children keep their old edge.
func (o *Orchestrator) CascadeRebase(ctx context.Context, children []Workspace, target Target) []ChildOutcome {
	outcomes := make([]ChildOutcome, 0, len(children))
	for _, child := range children {
		out := o.RebaseOnto(ctx, child, target)

		if !out.Failed() {
			if err := o.reparent(child.Name, target); err != nil {
				out = Outcome{
					Result: SystemFailure,
					Branch: out.Branch,
					Detail: "rebased, but the stack could not be updated: " + err.Error(),
					Err:    err,
				}
			}
		}

		switch out.Result {
		case Success:
			o.logger.Printf("rebased child=%s onto=%s", child.Name, target.Branch)
		case ConflictFailure:
			o.logger.Printf("rebase conflict child=%s onto=%s files=%s", child.Name, target.Branch, strings.Join(out.ConflictedFiles, ","))
		default:
			o.logger.Printf("rebase failed child=%s onto=%s: %v", child.Name, target.Branch, out.Err)
		}

		outcomes = append(outcomes, ChildOutcome{Workspace: child, Outcome: out})
	}
	return outcomes
}

func (o *Orchestrator) reparent(child string, target Target) error {
	if target.Parent == "" {
		return o.graph.RemoveEdge(child)
	}
	return o.graph.SetEdge(child, target.Parent, target.Branch)
}

// Failures counts the failed outcomes of a cascade.
func Failures(outcomes []ChildOutcome) int {
	n := 0
	for _, c := range outcomes {
		if c.Failed() {
			n++
		}
	}
	return n
}
