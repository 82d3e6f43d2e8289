package state

// StateStore defines the interface for state persistence.
type StateStore interface {
	AddRun(r Run) error
	GetRuns(project string) []Run
	GetRun(prefix string) (Run, bool)
	RemoveRuns(project string)

	// Persistence
	Save() error
}

// Ensure State implements StateStore at compile time.
var _ StateStore = (*State)(nil)
