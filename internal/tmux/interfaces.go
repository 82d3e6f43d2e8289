package tmux

import "context"

// TmuxService defines the interface for tmux operations.
type TmuxService interface {
	// CreateSession creates a detached session in dir.
	CreateSession(ctx context.Context, name, dir string) error

	// KillSession kills a tmux session.
	KillSession(ctx context.Context, name string) error

	// SessionExists checks if a tmux session with the given name exists.
	SessionExists(ctx context.Context, name string) bool

	// SwitchClient moves the current client to a session.
	SwitchClient(ctx context.Context, name string) error

	// Attach attaches the terminal to a session.
	Attach(ctx context.Context, name string) error

	// InsideTmux reports whether we are running inside a tmux client.
	InsideTmux() bool
}

// tmuxService adapts the package-level functions to TmuxService.
type tmuxService struct{}

// NewTmuxService creates a new TmuxService backed by the package-level functions.
func NewTmuxService() TmuxService {
	return &tmuxService{}
}

func (t *tmuxService) CreateSession(ctx context.Context, name, dir string) error {
	return CreateSession(ctx, name, dir)
}

func (t *tmuxService) KillSession(ctx context.Context, name string) error {
	return KillSession(ctx, name)
}

func (t *tmuxService) SessionExists(ctx context.Context, name string) bool {
	return SessionExists(ctx, name)
}

func (t *tmuxService) SwitchClient(ctx context.Context, name string) error {
	return SwitchClient(ctx, name)
}

func (t *tmuxService) Attach(ctx context.Context, name string) error {
	return Attach(ctx, name)
}

func (t *tmuxService) InsideTmux() bool {
	return InsideTmux()
}
