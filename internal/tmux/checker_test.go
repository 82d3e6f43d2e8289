package tmux

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeTmuxOnPath puts a tmux script with the given body first on PATH.
func fakeTmuxOnPath(t *testing.T, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, "tmux"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake tmux: %v", err)
	}
	t.Setenv("PATH", dir)
}

func TestDefaultChecker(t *testing.T) {
	tests := []struct {
		name    string
		body    string // empty means no tmux on PATH
		wantErr string
	}{
		{name: "installed", body: "echo 'tmux 3.4'"},
		{name: "no output", body: "exit 0", wantErr: "tmux command produced no output"},
		{name: "failing", body: "exit 1", wantErr: "tmux is not installed"},
		{name: "missing", wantErr: "tmux is not installed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.body == "" {
				t.Setenv("PATH", t.TempDir())
			} else {
				fakeTmuxOnPath(t, tt.body)
			}

			err := (&defaultChecker{}).Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Check() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Check() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
