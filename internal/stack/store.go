package stack

import (
	"sync"
)

// Edge is the persisted parent reference of one stacked workspace.
// BaseBranch is the parent's branch at edge creation or the last successful
// rebase; it is not kept in sync with the parent's live branch.
type Edge struct {
	BasedOn    string `json:"based_on" yaml:"based_on"`
	BaseBranch string `json:"base_branch" yaml:"base_branch"`
}

// Edges maps a child workspace name to its edge. A workspace absent from the
// map is a root.
type Edges map[string]Edge

// Clone returns an independent copy.
func (e Edges) Clone() Edges {
	out := make(Edges, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Store loads and saves the edge map of one project.
type Store interface {
	LoadEdges(project string) (Edges, error)
	SaveEdges(project string, edges Edges) error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]Edges
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]Edges)}
}

// LoadEdges returns a copy of the project's edges. Unknown projects have none.
func (m *MemoryStore) LoadEdges(project string) (Edges, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects[project].Clone(), nil
}

// SaveEdges replaces the project's edges with a copy of edges.
func (m *MemoryStore) SaveEdges(project string, edges Edges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project] = edges.Clone()
	return nil
}

var _ Store = (*MemoryStore)(nil)
