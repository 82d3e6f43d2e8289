package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// scratchRefPrefix namespaces the refs pinned for a single rebase.
const scratchRefPrefix = "refs/canopy/rebase/"

// RebaseResult describes a rebase that ran to completion or stopped on conflicts.
type RebaseResult struct {
	Conflict        bool
	ConflictedFiles []string
}

// FetchRef fetches branch from sourcePath into a fresh scratch ref of the
// repository at dir, pinning the commit the rebase will target.
func (m *Manager) FetchRef(ctx context.Context, dir, sourcePath, branch string) (string, error) {
	ref := scratchRefPrefix + uuid.New().String()
	refspec := fmt.Sprintf("+refs/heads/%s:%s", branch, ref)

	m.logger.Printf("fetching %s from %s into %s", branch, sourcePath, ref)
	if _, err := runGit(ctx, dir, "fetch", "--no-tags", sourcePath, refspec); err != nil {
		return "", err
	}
	return ref, nil
}

// DeleteRef removes a scratch ref created by FetchRef.
func (m *Manager) DeleteRef(ctx context.Context, dir, ref string) error {
	_, err := runGit(ctx, dir, "update-ref", "-d", ref)
	return err
}

// Rebase rebases the checked-out branch of dir onto ref. A rebase that stops
// on conflicts is left in progress and reported through RebaseResult; any
// other failure is returned as an error.
func (m *Manager) Rebase(ctx context.Context, dir, onto string) (RebaseResult, error) {
	cmd := exec.CommandContext(ctx, "git", "rebase", onto)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_EDITOR=true")
	output, err := cmd.CombinedOutput()
	if err == nil {
		m.logger.Printf("rebased %s onto %s", dir, onto)
		return RebaseResult{}, nil
	}

	if !rebaseInProgress(ctx, dir) {
		return RebaseResult{}, fmt.Errorf("git rebase failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	files, _ := conflictedFiles(ctx, dir)
	m.logger.Printf("rebase of %s onto %s stopped with conflicts: %s", dir, onto, strings.Join(files, ", "))
	return RebaseResult{Conflict: true, ConflictedFiles: files}, nil
}

// rebaseInProgress checks for the rebase state directories of dir's worktree.
func rebaseInProgress(ctx context.Context, dir string) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		path, err := runGit(ctx, dir, "rev-parse", "--git-path", name)
		if err != nil {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// conflictedFiles lists paths with unresolved merge conflicts.
func conflictedFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := runGit(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
