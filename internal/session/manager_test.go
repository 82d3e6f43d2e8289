package session

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeTmux records calls against an in-memory set of sessions.
type fakeTmux struct {
	sessions  map[string]string // name -> dir
	inside    bool
	calls     []string
	createErr error
}

func newFakeTmux() *fakeTmux {
	return &fakeTmux{sessions: map[string]string{}}
}

func (f *fakeTmux) CreateSession(ctx context.Context, name, dir string) error {
	f.calls = append(f.calls, "create "+name)
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[name] = dir
	return nil
}

func (f *fakeTmux) KillSession(ctx context.Context, name string) error {
	f.calls = append(f.calls, "kill "+name)
	delete(f.sessions, name)
	return nil
}

func (f *fakeTmux) SessionExists(ctx context.Context, name string) bool {
	_, ok := f.sessions[name]
	return ok
}

func (f *fakeTmux) SwitchClient(ctx context.Context, name string) error {
	f.calls = append(f.calls, "switch "+name)
	return nil
}

func (f *fakeTmux) Attach(ctx context.Context, name string) error {
	f.calls = append(f.calls, "attach "+name)
	return nil
}

func (f *fakeTmux) InsideTmux() bool { return f.inside }

func TestName(t *testing.T) {
	m := New("canopy", newFakeTmux(), nil)

	tests := []struct {
		project, workspace, want string
	}{
		{"web", "feat-a", "canopy-web-feat-a"},
		{"web", "v1.2", "canopy-web-v1-2"},
		{"my:proj", "x", "canopy-my-proj-x"},
	}
	for _, tt := range tests {
		if got := m.Name(tt.project, tt.workspace); got != tt.want {
			t.Errorf("Name(%q, %q) = %q, want %q", tt.project, tt.workspace, got, tt.want)
		}
	}
}

func TestOpenCreatesAndAttaches(t *testing.T) {
	fake := newFakeTmux()
	m := New("canopy", fake, nil)

	if err := m.Open(context.Background(), "web", "feat-a", "/ws/web/feat-a"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	want := "create canopy-web-feat-a,attach canopy-web-feat-a"
	if got := strings.Join(fake.calls, ","); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
	if fake.sessions["canopy-web-feat-a"] != "/ws/web/feat-a" {
		t.Errorf("session dir = %q", fake.sessions["canopy-web-feat-a"])
	}
}

func TestOpenExistingInsideTmuxSwitches(t *testing.T) {
	fake := newFakeTmux()
	fake.inside = true
	fake.sessions["canopy-web-feat-a"] = "/ws/web/feat-a"
	m := New("canopy", fake, nil)

	if err := m.Open(context.Background(), "web", "feat-a", "/ws/web/feat-a"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := strings.Join(fake.calls, ","); got != "switch canopy-web-feat-a" {
		t.Errorf("calls = %q, want a single switch", got)
	}
}

func TestOpenCreateFailure(t *testing.T) {
	fake := newFakeTmux()
	fake.createErr = errors.New("boom")
	m := New("canopy", fake, nil)

	if err := m.Open(context.Background(), "web", "feat-a", "/ws"); err == nil {
		t.Fatal("Open() should surface the create error")
	}
	if len(fake.calls) != 1 {
		t.Errorf("no attach should follow a failed create: %v", fake.calls)
	}
}

func TestExistsAndClose(t *testing.T) {
	fake := newFakeTmux()
	m := New("canopy", fake, nil)
	ctx := context.Background()

	if m.Exists(ctx, "web", "feat-a") {
		t.Error("Exists() should be false before creation")
	}
	if err := m.Close(ctx, "web", "feat-a"); err != nil {
		t.Fatalf("Close() of missing session error = %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("closing a missing session should not call tmux: %v", fake.calls)
	}

	if err := m.Ensure(ctx, "web", "feat-a", "/ws"); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !m.Exists(ctx, "web", "feat-a") {
		t.Error("Exists() should be true after Ensure()")
	}
	if err := m.Close(ctx, "web", "feat-a"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if m.Exists(ctx, "web", "feat-a") {
		t.Error("Exists() should be false after Close()")
	}
}
