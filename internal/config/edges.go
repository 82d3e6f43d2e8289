package config

import (
	"fmt"

	"github.com/sergeknystautas/canopy/internal/stack"
)

// EdgeStore persists stack edges inside the project entries of a Config.
type EdgeStore struct {
	cfg *Config
}

// NewEdgeStore returns a stack.Store writing through cfg.
func NewEdgeStore(cfg *Config) *EdgeStore {
	return &EdgeStore{cfg: cfg}
}

// LoadEdges returns a copy of the project's stack map.
func (s *EdgeStore) LoadEdges(project string) (stack.Edges, error) {
	p, ok := s.cfg.FindProject(project)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, project)
	}
	return p.Stack.Clone(), nil
}

// SaveEdges replaces the project's stack map and saves the config.
func (s *EdgeStore) SaveEdges(project string, edges stack.Edges) error {
	p, ok := s.cfg.FindProject(project)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, project)
	}
	if len(edges) == 0 {
		p.Stack = nil
	} else {
		p.Stack = edges.Clone()
	}
	return s.cfg.Save()
}

var _ stack.Store = (*EdgeStore)(nil)
