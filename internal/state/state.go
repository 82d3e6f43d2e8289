package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxRuns is how many cascade runs are kept on disk.
const MaxRuns = 20

// Trigger names the command that started a cascade.
type Trigger string

const (
	TriggerRebase Trigger = "rebase"
	TriggerRemove Trigger = "remove"
)

// State represents the application state.
type State struct {
	Runs []Run `json:"runs"` // newest first

	path string // path to the state file
	mu   sync.RWMutex
}

// Run records one cascade rebase across the children of a workspace.
type Run struct {
	ID           string       `json:"id" yaml:"id"`
	Project      string       `json:"project" yaml:"project"`
	Trigger      Trigger      `json:"trigger" yaml:"trigger"`
	Target       string       `json:"target" yaml:"target"` // workspace whose children were rebased
	TargetBranch string       `json:"target_branch" yaml:"target_branch"`
	StartedAt    time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time    `json:"finished_at" yaml:"finished_at"`
	Outcomes     []RunOutcome `json:"outcomes" yaml:"outcomes"`
}

// RunOutcome is the result for one child within a Run.
type RunOutcome struct {
	Workspace       string   `json:"workspace" yaml:"workspace"`
	Result          string   `json:"result" yaml:"result"`
	Detail          string   `json:"detail,omitempty" yaml:"detail,omitempty"`
	ConflictedFiles []string `json:"conflicted_files,omitempty" yaml:"conflicted_files,omitempty"`
}

// Failed counts outcomes that did not succeed.
func (r Run) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result != "success" {
			n++
		}
	}
	return n
}

// NewRun starts a run record with a fresh ID.
func NewRun(project string, trigger Trigger, target, targetBranch string) Run {
	return Run{
		ID:           uuid.New().String(),
		Project:      project,
		Trigger:      trigger,
		Target:       target,
		TargetBranch: targetBranch,
		StartedAt:    time.Now(),
	}
}

// New creates a new empty State instance.
func New(path string) *State {
	return &State{
		Runs: []Run{},
		path: path,
	}
}

// Load loads the state from the given path.
// Returns an empty state if the file doesn't exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(path), nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var st State
	st.path = path
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if st.Runs == nil {
		st.Runs = []Run{}
	}

	return &st, nil
}

// Save saves the state to its configured path.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("state path is empty, cannot save")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}

	return nil
}

// AddRun records a run, dropping the oldest beyond MaxRuns.
func (s *State) AddRun(r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs = append([]Run{r}, s.Runs...)
	if len(s.Runs) > MaxRuns {
		s.Runs = s.Runs[:MaxRuns]
	}
	return nil
}

// GetRuns returns the runs of a project, newest first. An empty project
// returns every run.
// Returns a copy to prevent callers from modifying internal state.
func (s *State) GetRuns(project string) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]Run, 0, len(s.Runs))
	for _, r := range s.Runs {
		if project == "" || r.Project == project {
			runs = append(runs, r)
		}
	}
	return runs
}

// GetRun returns the run whose ID starts with prefix. Ambiguous prefixes
// match nothing.
func (s *State) GetRun(prefix string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if prefix == "" {
		return Run{}, false
	}
	var found Run
	matches := 0
	for _, r := range s.Runs {
		if strings.HasPrefix(r.ID, prefix) {
			found = r
			matches++
		}
	}
	if matches != 1 {
		return Run{}, false
	}
	return found, true
}

// RemoveRuns drops every run of a project.
func (s *State) RemoveRuns(project string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Runs[:0]
	for _, r := range s.Runs {
		if r.Project != project {
			kept = append(kept, r)
		}
	}
	s.Runs = kept
}
