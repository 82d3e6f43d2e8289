package tmux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestSanitizeSessionName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "replaces dots with dashes",
			input:    "canopy-web-v1.2",
			expected: "canopy-web-v1-2",
		},
		{
			name:     "replaces colons with dashes",
			input:    "my:session",
			expected: "my-session",
		},
		{
			name:     "replaces both dots and colons",
			input:    "my.session:name",
			expected: "my-session-name",
		},
		{
			name:     "leaves valid characters unchanged",
			input:    "my-session_123",
			expected: "my-session_123",
		},
		{
			name:     "handles empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSessionName(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeSessionName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetAttachCommand(t *testing.T) {
	want := `tmux attach -t "=canopy-web-feat"`
	if got := GetAttachCommand("canopy-web-feat"); got != want {
		t.Errorf("GetAttachCommand() = %q, want %q", got, want)
	}
}

func TestInsideTmux(t *testing.T) {
	t.Setenv("TMUX", "")
	if InsideTmux() {
		t.Error("InsideTmux() should be false without $TMUX")
	}
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1,0")
	if !InsideTmux() {
		t.Error("InsideTmux() should be true with $TMUX")
	}
}

// TestSessionLifecycle runs against a private tmux server.
func TestSessionLifecycle(t *testing.T) {
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not available")
	}
	socketDir := t.TempDir()
	t.Setenv("TMUX_TMPDIR", socketDir)
	t.Setenv("TMUX", "")

	ctx := context.Background()
	name := fmt.Sprintf("canopy-test-%d", os.Getpid())
	t.Cleanup(func() {
		_ = exec.Command("tmux", "kill-server").Run()
	})

	if SessionExists(ctx, name) {
		t.Fatalf("session %s should not exist yet", name)
	}
	if err := CreateSession(ctx, name, t.TempDir()); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if !SessionExists(ctx, name) {
		t.Fatal("session should exist after CreateSession()")
	}
	if SessionExists(ctx, name[:len(name)-1]) {
		t.Error("SessionExists() must not match on a prefix")
	}

	if err := KillSession(ctx, name); err != nil {
		t.Fatalf("KillSession() error = %v", err)
	}
	if SessionExists(ctx, name) {
		t.Error("session should be gone after KillSession()")
	}
}
