package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CreateSession creates a new detached tmux session in dir running the
// default shell.
func CreateSession(ctx context.Context, name, dir string) error {
	// tmux new-session -d -s <name> -c <dir>
	args := []string{
		"new-session",
		"-d",       // detached
		"-s", name, // session name
		"-c", dir, // working directory
	}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create tmux session: %w: %s", err, string(output))
	}

	return nil
}

// SessionExists checks if a tmux session with the given name exists.
func SessionExists(ctx context.Context, name string) bool {
	// tmux has-session -t <name> (= prefix for exact match)
	args := []string{"has-session", "-t", "=" + name}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	err := cmd.Run()
	return err == nil
}

// KillSession kills a tmux session.
func KillSession(ctx context.Context, name string) error {
	// tmux kill-session -t <name> (= prefix for exact match)
	args := []string{"kill-session", "-t", "=" + name}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to kill tmux session: %w: %s", err, string(output))
	}

	return nil
}

// InsideTmux reports whether the current process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// SwitchClient moves the current tmux client to another session.
func SwitchClient(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "tmux", "switch-client", "-t", "="+name)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to switch tmux client: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Attach attaches the terminal to a session and blocks until the client detaches.
func Attach(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "tmux", "attach-session", "-t", "="+name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to attach tmux session: %w", err)
	}
	return nil
}

// GetAttachCommand returns the command to attach to a tmux session.
func GetAttachCommand(name string) string {
	return fmt.Sprintf("tmux attach -t \"=%s\"", name)
}

// SanitizeSessionName replaces characters tmux treats as target separators.
// tmux session names cannot contain dots (.) or colons (:).
func SanitizeSessionName(name string) string {
	result := strings.ReplaceAll(name, ".", "-")
	result = strings.ReplaceAll(result, ":", "-")
	return result
}
