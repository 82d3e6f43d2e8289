package session

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/sergeknystautas/canopy/internal/tmux"
)

// Manager maps workspaces to tmux sessions.
type Manager struct {
	prefix string
	tmux   tmux.TmuxService
	logger *log.Logger
}

// New creates a new session manager. Sessions are named
// "<prefix>-<project>-<workspace>".
func New(prefix string, svc tmux.TmuxService, w io.Writer) *Manager {
	if w == nil {
		w = io.Discard
	}
	return &Manager{
		prefix: prefix,
		tmux:   svc,
		logger: log.New(w, "[session] ", log.LstdFlags),
	}
}

// Name returns the tmux session name for a workspace.
func (m *Manager) Name(project, workspace string) string {
	return tmux.SanitizeSessionName(fmt.Sprintf("%s-%s-%s", m.prefix, project, workspace))
}

// Exists reports whether the workspace has a live session.
func (m *Manager) Exists(ctx context.Context, project, workspace string) bool {
	return m.tmux.SessionExists(ctx, m.Name(project, workspace))
}

// Open creates the workspace's session if needed and moves the terminal to
// it: switch-client inside tmux, attach otherwise.
func (m *Manager) Open(ctx context.Context, project, workspace, dir string) error {
	name := m.Name(project, workspace)
	if err := m.Ensure(ctx, project, workspace, dir); err != nil {
		return err
	}

	if m.tmux.InsideTmux() {
		m.logger.Printf("switching client to %s", name)
		return m.tmux.SwitchClient(ctx, name)
	}
	m.logger.Printf("attaching to %s", name)
	return m.tmux.Attach(ctx, name)
}

// Ensure creates a detached session for the workspace if it has none.
func (m *Manager) Ensure(ctx context.Context, project, workspace, dir string) error {
	name := m.Name(project, workspace)
	if m.tmux.SessionExists(ctx, name) {
		return nil
	}
	m.logger.Printf("creating session %s in %s", name, dir)
	if err := m.tmux.CreateSession(ctx, name, dir); err != nil {
		return err
	}
	return nil
}

// Close kills the workspace's session if one is running.
func (m *Manager) Close(ctx context.Context, project, workspace string) error {
	name := m.Name(project, workspace)
	if !m.tmux.SessionExists(ctx, name) {
		return nil
	}
	m.logger.Printf("killing session %s", name)
	return m.tmux.KillSession(ctx, name)
}
