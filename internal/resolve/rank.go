package resolve

import (
	"sort"
	"unicode/utf8"

	"github.com/sergeknystautas/canopy/internal/fuzzy"
)

const (
	shortNameLength    = 15
	shortNameBonus     = 5
	activeSessionBonus = 10
)

// Candidate is one live workspace with a fresh status snapshot.
type Candidate struct {
	Name               string `json:"name" yaml:"name"`
	Path               string `json:"path" yaml:"path"`
	Branch             string `json:"branch" yaml:"branch"`
	Ahead              int    `json:"ahead" yaml:"ahead"`
	Behind             int    `json:"behind" yaml:"behind"`
	UncommittedChanges int    `json:"uncommitted_changes" yaml:"uncommitted_changes"`
	LastCommit         string `json:"last_commit,omitempty" yaml:"last_commit,omitempty"` // humanized age, e.g. "3 hours ago"
	LastCommitSubject  string `json:"last_commit_subject,omitempty" yaml:"last_commit_subject,omitempty"`
	HasActiveSession   bool   `json:"has_active_session" yaml:"has_active_session"`
}

// FuzzyMatch is a candidate whose name matched the query.
type FuzzyMatch struct {
	Candidate      Candidate
	Score          int
	MatchedIndices []int
}

// RankedWorkspace is a match re-weighted with workspace context.
type RankedWorkspace struct {
	Candidate      Candidate
	MatchScore     int
	FinalScore     int
	MatchedIndices []int
}

// MatchCandidates fuzzy-matches query against candidate names, keeping
// matches that score at least fuzzy.MinScore, best first.
func MatchCandidates(query string, candidates []Candidate) []FuzzyMatch {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	results := fuzzy.MatchAll(query, names)
	matches := make([]FuzzyMatch, len(results))
	for i, r := range results {
		matches[i] = FuzzyMatch{
			Candidate:      candidates[r.Index],
			Score:          r.Score,
			MatchedIndices: r.MatchedIndices,
		}
	}
	return matches
}

// Rank adds a bonus for short names and for workspaces with a running
// session, then orders by the final score. Ties keep their input order.
func Rank(matches []FuzzyMatch) []RankedWorkspace {
	ranked := make([]RankedWorkspace, len(matches))
	for i, m := range matches {
		final := m.Score
		if utf8.RuneCountInString(m.Candidate.Name) <= shortNameLength {
			final += shortNameBonus
		}
		if m.Candidate.HasActiveSession {
			final += activeSessionBonus
		}
		ranked[i] = RankedWorkspace{
			Candidate:      m.Candidate,
			MatchScore:     m.Score,
			FinalScore:     final,
			MatchedIndices: m.MatchedIndices,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked
}
