package workspace

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergeknystautas/canopy/internal/config"
)

var (
	ErrWorkspaceExists   = errors.New("workspace already exists")
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// Manager manages the worktree directories of every configured project.
// Workspaces live at <workspace_path>/<project>/<name>.
type Manager struct {
	config *config.Config
	logger *log.Logger
}

// New creates a new workspace manager logging to w.
func New(cfg *config.Config, w io.Writer) *Manager {
	if w == nil {
		w = io.Discard
	}
	return &Manager{
		config: cfg,
		logger: log.New(w, "[workspace] ", log.LstdFlags),
	}
}

// Root returns the directory holding a project's workspaces.
func (m *Manager) Root(project string) string {
	return filepath.Join(m.config.GetWorkspacePath(), project)
}

// Path returns the directory of one workspace. It does not check existence.
func (m *Manager) Path(project, name string) string {
	return filepath.Join(m.Root(project), name)
}

// List returns the sorted names of non-empty workspace directories of a
// project. A missing project root yields an empty list.
func (m *Manager) List(project string) ([]string, error) {
	entries, err := os.ReadDir(m.Root(project))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read workspace directory: %w", err)
	}

	// ReadDir returns entries sorted by filename.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if isEmptyDir(filepath.Join(m.Root(project), entry.Name())) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Exists reports whether a workspace is live on disk.
func (m *Manager) Exists(project, name string) bool {
	path := m.Path(project, name)
	info, err := os.Stat(path)
	return err == nil && info.IsDir() && !isEmptyDir(path)
}

// project returns the config entry for a project name.
func (m *Manager) project(name string) (*config.Project, error) {
	p, ok := m.config.FindProject(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrProjectNotFound, name)
	}
	return p, nil
}

// projectForPath finds the project owning a workspace path, if any.
func (m *Manager) projectForPath(path string) (*config.Project, bool) {
	rel, err := filepath.Rel(m.config.GetWorkspacePath(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, false
	}
	name, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return m.config.FindProject(name)
}

func isEmptyDir(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	return err == io.EOF
}
