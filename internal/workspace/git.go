package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	branchNamePattern    = regexp.MustCompile(`^[a-z0-9_]+(?:[._/-][a-z0-9_]+)*$`)
	workspaceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

var (
	// ErrInvalidBranchName is returned when a branch name fails validation.
	ErrInvalidBranchName = errors.New("invalid branch name")
	// ErrInvalidWorkspaceName is returned when a workspace name is not a safe directory name.
	ErrInvalidWorkspaceName = errors.New("invalid workspace name")
)

// ValidateBranchName checks whether a branch name is acceptable for use.
// Returns nil if valid, or an error describing the problem.
func ValidateBranchName(branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("%w: branch name cannot be empty", ErrInvalidBranchName)
	}
	if !branchNamePattern.MatchString(branch) {
		return fmt.Errorf("%w: %q does not match required format (lowercase alphanumeric, underscores, hyphens, forward slashes, or periods)", ErrInvalidBranchName, branch)
	}
	// Check for consecutive separators (-, ., /, _)
	for i := 0; i < len(branch)-1; i++ {
		if branch[i] == branch[i+1] && (branch[i] == '-' || branch[i] == '.' || branch[i] == '/' || branch[i] == '_') {
			return fmt.Errorf("%w: %q has consecutive characters", ErrInvalidBranchName, branch)
		}
	}
	return nil
}

// ValidateWorkspaceName checks that a name can be used as a directory under
// the project root.
func ValidateWorkspaceName(name string) error {
	if !workspaceNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q (letters, digits, '.', '_' or '-', not starting with a separator)", ErrInvalidWorkspaceName, name)
	}
	return nil
}

// Status is a version-control snapshot of one workspace.
type Status struct {
	Branch             string
	Ahead              int
	Behind             int
	UncommittedChanges int
	LastCommit         time.Time
	LastCommitSubject  string
}

// Status reports the git state of a workspace. It returns false when the
// path is missing or is not a working tree.
// Ahead/behind compare against the upstream branch, falling back to the
// owning project's origin/<base_branch>.
func (m *Manager) Status(ctx context.Context, dir string) (Status, bool) {
	if _, err := os.Stat(dir); err != nil {
		return Status{}, false
	}
	if out, err := runGit(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil || out != "true" {
		return Status{}, false
	}

	var st Status
	if branch, err := m.Branch(ctx, dir); err == nil {
		st.Branch = branch
	}

	if out, err := runGit(ctx, dir, "status", "--porcelain"); err == nil && out != "" {
		st.UncommittedChanges = len(strings.Split(out, "\n"))
	}

	if ahead, behind, ok := aheadBehind(ctx, dir, "@{upstream}"); ok {
		st.Ahead, st.Behind = ahead, behind
	} else if p, found := m.projectForPath(dir); found {
		if ahead, behind, ok := aheadBehind(ctx, dir, "origin/"+p.GetBaseBranch()); ok {
			st.Ahead, st.Behind = ahead, behind
		}
	}

	if out, err := runGit(ctx, dir, "log", "-1", "--format=%ct%x00%s"); err == nil && out != "" {
		stamp, subject, _ := strings.Cut(out, "\x00")
		if secs, err := strconv.ParseInt(stamp, 10, 64); err == nil {
			st.LastCommit = time.Unix(secs, 0)
		}
		st.LastCommitSubject = subject
	}

	return st, true
}

// Branch returns the current branch name for a directory.
func (m *Manager) Branch(ctx context.Context, dir string) (string, error) {
	return runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// aheadBehind counts commits on HEAD not in ref and vice versa.
func aheadBehind(ctx context.Context, dir, ref string) (ahead, behind int, ok bool) {
	out, err := runGit(ctx, dir, "rev-list", "--left-right", "--count", "HEAD..."+ref)
	if err != nil {
		return 0, 0, false
	}
	// Parse output: "ahead\tbehind" (e.g., "3\t2" means 3 ahead, 2 behind)
	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, 0, false
	}
	ahead, _ = strconv.Atoi(parts[0])
	behind, _ = strconv.Atoi(parts[1])
	return ahead, behind, true
}

// runGit runs git in dir and returns trimmed stdout+stderr.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}
