package github

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrGHNotInstalled is returned when the gh CLI cannot be found.
var ErrGHNotInstalled = errors.New("gh CLI not installed")

// CLI runs pull request operations through the gh command line tool.
type CLI struct {
	// Bin is the gh executable; empty means "gh" on PATH.
	Bin string
	// Repo is "owner/repo"; empty lets gh infer it from the working tree.
	Repo string
}

// NewCLI returns a CLI for the repository at repoURL. Non-GitHub URLs leave
// the repository to gh.
func NewCLI(repoURL string) *CLI {
	c := &CLI{}
	if info, err := ParseRepoURL(repoURL); err == nil {
		c.Repo = info.APIPath()
	}
	return c
}

func (c *CLI) bin() string {
	if c.Bin == "" {
		return "gh"
	}
	return c.Bin
}

// Available reports whether the gh executable can be found.
func (c *CLI) Available() bool {
	_, err := exec.LookPath(c.bin())
	return err == nil
}

// RetargetPR changes the base branch of the open pull request for branch.
// dir must be inside a clone of the repository the PR belongs to.
func (c *CLI) RetargetPR(ctx context.Context, dir, branch, base string) error {
	if !c.Available() {
		return ErrGHNotInstalled
	}
	args := []string{"pr", "edit", branch, "--base", base}
	if c.Repo != "" {
		args = append(args, "--repo", c.Repo)
	}
	cmd := exec.CommandContext(ctx, c.bin(), args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gh pr edit failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
