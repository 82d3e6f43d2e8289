// Package stack tracks which workspace of a project is stacked on which other
// workspace's branch. Edges are keyed by child and persisted through a Store;
// every Graph operation loads the current map so the store stays the single
// source of truth.
package stack

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCircularDependency is returned when a new edge would make a workspace its
// own ancestor.
var ErrCircularDependency = errors.New("circular stack dependency")

// CycleError describes a rejected edge.
type CycleError struct {
	Child  string
	Parent string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %q cannot be stacked on %q because %q is already downstream of it",
		ErrCircularDependency, e.Child, e.Parent, e.Parent)
}

func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}

// Parent is the workspace a child is stacked on and the branch recorded for it.
type Parent struct {
	Workspace string
	Branch    string
}

// Graph is the stack view over one project's edges.
type Graph struct {
	project string
	store   Store
}

// NewGraph returns a Graph for project backed by store.
func NewGraph(project string, store Store) *Graph {
	return &Graph{project: project, store: store}
}

// Project returns the project this graph operates on.
func (g *Graph) Project() string {
	return g.project
}

// Edges returns a copy of the project's current edge map.
func (g *Graph) Edges() (Edges, error) {
	edges, err := g.store.LoadEdges(g.project)
	if err != nil {
		return nil, fmt.Errorf("failed to load stack edges for %s: %w", g.project, err)
	}
	if edges == nil {
		edges = Edges{}
	}
	return edges, nil
}

// SetEdge inserts or overwrites the edge for child. It does not check for
// cycles; use Stack when introducing a new relationship.
func (g *Graph) SetEdge(child, parent, parentBranch string) error {
	if child == "" || parent == "" {
		return fmt.Errorf("stack edge needs both a child and a parent (child=%q parent=%q)", child, parent)
	}
	edges, err := g.Edges()
	if err != nil {
		return err
	}
	edges[child] = Edge{BasedOn: parent, BaseBranch: parentBranch}
	return g.save(edges)
}

// RemoveEdge deletes the edge for child. Removing a missing edge is a no-op.
func (g *Graph) RemoveEdge(child string) error {
	edges, err := g.Edges()
	if err != nil {
		return err
	}
	if _, ok := edges[child]; !ok {
		return nil
	}
	delete(edges, child)
	return g.save(edges)
}

// GetParent returns the parent of child, if child is stacked.
func (g *Graph) GetParent(child string) (Parent, bool, error) {
	edges, err := g.Edges()
	if err != nil {
		return Parent{}, false, err
	}
	p, ok := parentOf(edges, child)
	return p, ok, nil
}

// GetChildren returns the workspaces stacked directly on parent, sorted by name.
func (g *Graph) GetChildren(parent string) ([]string, error) {
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	return childrenOf(edges, parent), nil
}

// DetectCircularDependency reports whether stacking proposedChild on
// candidateParent would create a cycle. It walks up from candidateParent and
// returns true as soon as it meets proposedChild or revisits a workspace.
func (g *Graph) DetectCircularDependency(candidateParent, proposedChild string) (bool, error) {
	edges, err := g.Edges()
	if err != nil {
		return false, err
	}
	return detectCycle(edges, candidateParent, proposedChild), nil
}

// Stack records child as stacked on parent after checking for cycles.
func (g *Graph) Stack(child, parent, parentBranch string) error {
	if child == parent {
		return &CycleError{Child: child, Parent: parent}
	}
	cyclic, err := g.DetectCircularDependency(parent, child)
	if err != nil {
		return err
	}
	if cyclic {
		return &CycleError{Child: child, Parent: parent}
	}
	return g.SetEdge(child, parent, parentBranch)
}

func (g *Graph) save(edges Edges) error {
	if err := g.store.SaveEdges(g.project, edges); err != nil {
		return fmt.Errorf("failed to save stack edges for %s: %w", g.project, err)
	}
	return nil
}

func parentOf(edges Edges, child string) (Parent, bool) {
	e, ok := edges[child]
	if !ok {
		return Parent{}, false
	}
	return Parent{Workspace: e.BasedOn, Branch: e.BaseBranch}, true
}

func childrenOf(edges Edges, parent string) []string {
	var children []string
	for child, e := range edges {
		if e.BasedOn == parent {
			children = append(children, child)
		}
	}
	sort.Strings(children)
	return children
}

func detectCycle(edges Edges, candidateParent, proposedChild string) bool {
	visited := make(map[string]bool)
	current := candidateParent
	for {
		if current == proposedChild || visited[current] {
			return true
		}
		visited[current] = true
		p, ok := parentOf(edges, current)
		if !ok {
			return false
		}
		current = p.Workspace
	}
}
