package workspace

import "context"

// WorkspaceManager defines the interface for workspace operations.
type WorkspaceManager interface {
	// List returns the live workspace names of a project.
	List(project string) ([]string, error)

	// Path returns the directory of a workspace.
	Path(project, name string) string

	// Exists reports whether a workspace directory is live.
	Exists(project, name string) bool

	// Status returns a git snapshot, or false if dir is not a working tree.
	Status(ctx context.Context, dir string) (Status, bool)

	// Branch returns the checked-out branch of dir.
	Branch(ctx context.Context, dir string) (string, error)

	// FetchRef pins branch from sourcePath into a scratch ref of dir's repository.
	FetchRef(ctx context.Context, dir, sourcePath, branch string) (string, error)

	// Rebase rebases dir onto ref, leaving conflicts in place.
	Rebase(ctx context.Context, dir, onto string) (RebaseResult, error)

	// DeleteRef removes a scratch ref.
	DeleteRef(ctx context.Context, dir, ref string) error

	// Create adds a worktree for a new workspace.
	Create(ctx context.Context, project, name, branch, startPoint string) (string, error)

	// Remove deletes a workspace's worktree.
	Remove(ctx context.Context, project, name string) error
}

// Ensure *Manager implements WorkspaceManager at compile time.
var _ WorkspaceManager = (*Manager)(nil)
