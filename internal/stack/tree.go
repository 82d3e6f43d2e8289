package stack

import (
	"context"
	"fmt"
)

// Lister enumerates the workspaces that exist on disk and their live branches.
type Lister interface {
	List(project string) ([]string, error)
	Path(project, name string) string
	Branch(ctx context.Context, path string) (string, error)
}

// TreeNode is one workspace in the rendered stack forest.
type TreeNode struct {
	WorkspaceName string      `json:"workspace" yaml:"workspace"`
	Branch        string      `json:"branch" yaml:"branch"`
	Children      []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
	Depth         int         `json:"depth" yaml:"depth"`
}

// BuildTree reconstructs the stack forest of the project from the workspaces
// currently on disk. Roots are workspaces without an edge, in listing order.
//
// Each recursive branch carries its own copy of the visited set, so only a
// cycle along a single path is cut. Workspaces reachable only through a cycle,
// or whose parent is gone from disk, do not appear.
func (g *Graph) BuildTree(ctx context.Context, lister Lister) ([]*TreeNode, error) {
	names, err := lister.List(g.project)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces for %s: %w", g.project, err)
	}
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}

	live := make(map[string]string, len(names))
	for _, name := range names {
		branch, err := lister.Branch(ctx, lister.Path(g.project, name))
		if err != nil {
			branch = ""
		}
		live[name] = branch
	}

	b := &treeBuilder{edges: edges, live: live}
	roots := make([]*TreeNode, 0)
	for _, name := range names {
		if _, stacked := edges[name]; stacked {
			continue
		}
		roots = append(roots, b.node(name, 0, map[string]bool{}))
	}
	return roots, nil
}

type treeBuilder struct {
	edges Edges
	live  map[string]string
}

func (b *treeBuilder) node(name string, depth int, visited map[string]bool) *TreeNode {
	seen := make(map[string]bool, len(visited)+1)
	for k := range visited {
		seen[k] = true
	}
	seen[name] = true

	n := &TreeNode{
		WorkspaceName: name,
		Branch:        b.live[name],
		Depth:         depth,
	}
	for _, child := range childrenOf(b.edges, name) {
		if _, ok := b.live[child]; !ok {
			continue
		}
		if seen[child] {
			continue
		}
		n.Children = append(n.Children, b.node(child, depth+1, seen))
	}
	return n
}

// Walk calls fn for every node in depth-first order.
func Walk(nodes []*TreeNode, fn func(*TreeNode)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Children, fn)
	}
}
