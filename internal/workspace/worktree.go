package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Create adds a worktree for a new workspace on branch. An existing local
// branch is checked out as is; otherwise the branch is created from
// startPoint, or from the project's base branch when startPoint is empty.
func (m *Manager) Create(ctx context.Context, project, name, branch, startPoint string) (string, error) {
	p, err := m.project(project)
	if err != nil {
		return "", err
	}
	if err := ValidateWorkspaceName(name); err != nil {
		return "", err
	}
	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}

	workspacePath := m.Path(project, name)
	if _, err := os.Stat(workspacePath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrWorkspaceExists, workspacePath)
	}
	if err := os.MkdirAll(m.Root(project), 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace directory: %w", err)
	}

	if startPoint == "" {
		startPoint = p.GetBaseBranch()
	}
	if err := m.addWorktree(ctx, p.RepoPath, workspacePath, branch, startPoint); err != nil {
		return "", err
	}

	m.logger.Printf("workspace created: project=%s name=%s branch=%s path=%s", project, name, branch, workspacePath)
	return workspacePath, nil
}

// Remove deletes a workspace's worktree. When git refuses, the directory is
// removed directly and stale worktree metadata pruned.
func (m *Manager) Remove(ctx context.Context, project, name string) error {
	p, err := m.project(project)
	if err != nil {
		return err
	}
	workspacePath := m.Path(project, name)
	if _, err := os.Stat(workspacePath); err != nil {
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, name)
	}

	if err := m.removeWorktree(ctx, p.RepoPath, workspacePath); err != nil {
		m.logger.Printf("worktree remove failed, deleting directory: %v", err)
		if err := os.RemoveAll(workspacePath); err != nil {
			return fmt.Errorf("failed to delete workspace directory: %w", err)
		}
		if err := m.pruneWorktrees(ctx, p.RepoPath); err != nil {
			m.logger.Printf("%v", err)
		}
	}

	m.logger.Printf("workspace removed: project=%s name=%s", project, name)
	return nil
}

// addWorktree adds a worktree from the project's repository.
func (m *Manager) addWorktree(ctx context.Context, repoPath, workspacePath, branch, startPoint string) error {
	m.logger.Printf("adding worktree: repo=%s path=%s branch=%s from=%s", repoPath, workspacePath, branch, startPoint)

	var args []string
	if m.localBranchExists(ctx, repoPath, branch) {
		// Branch exists locally - check it out directly (no -b)
		args = []string{"worktree", "add", workspacePath, branch}
	} else {
		args = []string{"worktree", "add", "-b", branch, workspacePath, startPoint}
	}
	if _, err := runGit(ctx, repoPath, args...); err != nil {
		return err
	}
	return nil
}

func (m *Manager) localBranchExists(ctx context.Context, repoPath, branch string) bool {
	cmd := exec.CommandContext(ctx, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = repoPath
	return cmd.Run() == nil
}

// removeWorktree removes a worktree.
func (m *Manager) removeWorktree(ctx context.Context, repoPath, workspacePath string) error {
	m.logger.Printf("removing worktree: repo=%s path=%s", repoPath, workspacePath)
	_, err := runGit(ctx, repoPath, "worktree", "remove", "--force", workspacePath)
	return err
}

// pruneWorktrees removes worktree metadata for directories that no longer exist.
func (m *Manager) pruneWorktrees(ctx context.Context, repoPath string) error {
	_, err := runGit(ctx, repoPath, "worktree", "prune")
	return err
}
