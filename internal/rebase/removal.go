package rebase

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRemovalCancelled is returned when the user keeps a workspace that has children.
var ErrRemovalCancelled = errors.New("removal cancelled")

// Policy decides what happens to the children of a removed workspace.
type Policy string

const (
	PolicyCancel Policy = "cancel" // keep everything
	PolicyRebase Policy = "rebase" // move children onto the removed workspace's own base
	PolicyOrphan Policy = "orphan" // drop the children's edges, leaving their branches alone
)

// Policies lists the accepted policies in prompt order.
var Policies = []Policy{PolicyRebase, PolicyOrphan, PolicyCancel}

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown removal policy %q (want one of: %s)", s, policyNames())
}

// String implements pflag.Value.
func (p *Policy) String() string {
	return string(*p)
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

func policyNames() string {
	names := make([]string, len(Policies))
	for i, p := range Policies {
		names[i] = string(p)
	}
	return strings.Join(names, "|")
}

// Locator finds live workspaces and their branches.
type Locator interface {
	Exists(project, name string) bool
	Path(project, name string) string
	Branch(ctx context.Context, dir string) (string, error)
}

// RemovalPlan describes the stack consequences of removing one workspace.
type RemovalPlan struct {
	Workspace Workspace
	Children  []Workspace // live children, sorted by name
	Stale     []string    // children with an edge but no directory
	Target    Target      // where children go under PolicyRebase
}

// PlanRemoval collects the children of removed and picks their rebase
// target: the removed workspace's parent on its live branch, or base when
// removed is a root or its parent is gone.
func (o *Orchestrator) PlanRemoval(ctx context.Context, loc Locator, removed string, base Target) (RemovalPlan, error) {
	project := o.graph.Project()
	plan := RemovalPlan{
		Workspace: Workspace{Name: removed, Path: loc.Path(project, removed)},
		Target:    base,
	}

	children, err := o.graph.GetChildren(removed)
	if err != nil {
		return plan, err
	}
	for _, name := range children {
		if loc.Exists(project, name) {
			plan.Children = append(plan.Children, Workspace{Name: name, Path: loc.Path(project, name)})
		} else {
			plan.Stale = append(plan.Stale, name)
		}
	}

	parent, ok, err := o.graph.GetParent(removed)
	if err != nil {
		return plan, err
	}
	if ok && loc.Exists(project, parent.Workspace) {
		parentPath := loc.Path(project, parent.Workspace)
		branch := parent.Branch
		if live, err := loc.Branch(ctx, parentPath); err == nil && live != "" && live != "HEAD" {
			branch = live
		}
		plan.Target = Target{Parent: parent.Workspace, Branch: branch, SourcePath: parentPath}
	}

	return plan, nil
}

// ApplyRemovalPolicy handles the children of a planned removal. The caller
// deletes the workspace and its own edge afterwards. Outcomes are only
// returned for PolicyRebase.
func (o *Orchestrator) ApplyRemovalPolicy(ctx context.Context, plan RemovalPlan, policy Policy) ([]ChildOutcome, error) {
	var outcomes []ChildOutcome
	switch policy {
	case PolicyCancel:
		return nil, ErrRemovalCancelled
	case PolicyRebase:
		outcomes = o.CascadeRebase(ctx, plan.Children, plan.Target)
	case PolicyOrphan:
		if err := o.Orphan(plan.Children); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown removal policy %q", policy)
	}

	for _, name := range plan.Stale {
		if err := o.graph.RemoveEdge(name); err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// Orphan removes the stack edge of every child, making each a root.
func (o *Orchestrator) Orphan(children []Workspace) error {
	for _, child := range children {
		if err := o.graph.RemoveEdge(child.Name); err != nil {
			return err
		}
		o.logger.Printf("orphaned child=%s", child.Name)
	}
	return nil
}
