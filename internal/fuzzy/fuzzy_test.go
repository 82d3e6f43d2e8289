package fuzzy

import (
	"reflect"
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		wantScore int
		wantIdx   []int
	}{
		{
			// base 50 + start 15 + boundary at 0 (5) + two consecutive (20) + three exact-case (6).
			// The bonuses add up to 96; a figure of 94 quoted elsewhere drops one of them.
			name:      "exact name",
			query:     "abc",
			candidate: "abc",
			wantScore: 96,
			wantIdx:   []int{0, 1, 2},
		},
		{
			name:      "case-insensitive only",
			query:     "ABC",
			candidate: "abc",
			wantScore: 90,
			wantIdx:   []int{0, 1, 2},
		},
		{
			name:      "hyphen boundary",
			query:     "fb",
			candidate: "feature-branch",
			wantScore: 72,
			wantIdx:   []int{0, 8},
		},
		{
			name:      "slash boundary",
			query:     "fb",
			candidate: "feat/bar",
			wantScore: 75,
			wantIdx:   []int{0, 5},
		},
		{
			name:      "underscore boundary",
			query:     "fb",
			candidate: "feat_bar",
			wantScore: 75,
			wantIdx:   []int{0, 5},
		},
		{
			name:      "no boundary",
			query:     "fb",
			candidate: "featbar",
			wantScore: 71,
			wantIdx:   []int{0, 4},
		},
		{
			name:      "not at start",
			query:     "bar",
			candidate: "foo-bar",
			wantScore: 81,
			wantIdx:   []int{4, 5, 6},
		},
		{
			name:      "not a subsequence",
			query:     "xyz",
			candidate: "abc",
			wantScore: 0,
			wantIdx:   nil,
		},
		{
			name:      "out of order",
			query:     "ca",
			candidate: "abc",
			wantScore: 0,
			wantIdx:   nil,
		},
		{
			name:      "query longer than candidate",
			query:     "abcd",
			candidate: "abc",
			wantScore: 0,
			wantIdx:   nil,
		},
		{
			name:      "large gap goes negative",
			query:     "az",
			candidate: "a" + strings.Repeat("x", 100) + "z",
			wantScore: -26,
			wantIdx:   []int{0, 101},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, idx := Match(tt.query, tt.candidate)
			if score != tt.wantScore {
				t.Errorf("Match(%q, %q) score = %d, want %d", tt.query, tt.candidate, score, tt.wantScore)
			}
			if len(tt.wantIdx) == 0 {
				if len(idx) != 0 {
					t.Errorf("Match(%q, %q) indices = %v, want none", tt.query, tt.candidate, idx)
				}
				return
			}
			if !reflect.DeepEqual(idx, tt.wantIdx) {
				t.Errorf("Match(%q, %q) indices = %v, want %v", tt.query, tt.candidate, idx, tt.wantIdx)
			}
		})
	}
}

func TestMatchNonSubsequenceAlwaysZero(t *testing.T) {
	pairs := [][2]string{
		{"q", ""},
		{"zz", "z"},
		{"ba", "ab"},
		{"auth-x", "auth-service"},
		{"main", "mani"},
	}
	for _, p := range pairs {
		score, idx := Match(p[0], p[1])
		if score != 0 || len(idx) != 0 {
			t.Errorf("Match(%q, %q) = (%d, %v), want (0, [])", p[0], p[1], score, idx)
		}
	}
}

func TestMatchAllDropsLowScores(t *testing.T) {
	candidates := []string{
		"a" + strings.Repeat("x", 45) + "b", // 29
		"a" + strings.Repeat("x", 44) + "b", // 30
		"nothing",
		"ab",
	}

	results := MatchAll("ab", candidates)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.Score < MinScore {
			t.Errorf("result %q has score %d below MinScore", r.Name, r.Score)
		}
	}
	if results[0].Name != "ab" {
		t.Errorf("expected best match first, got %q", results[0].Name)
	}
	if results[1].Index != 1 || results[1].Score != 30 {
		t.Errorf("expected candidate 1 with score 30, got index %d score %d", results[1].Index, results[1].Score)
	}
}

func TestMatchAllStableTies(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       []string
	}{
		{
			name:       "input order a then b",
			candidates: []string{"api-a", "api-b"},
			want:       []string{"api-a", "api-b"},
		},
		{
			name:       "input order b then a",
			candidates: []string{"api-b", "api-a"},
			want:       []string{"api-b", "api-a"},
		},
		{
			name:       "tie kept behind a higher score",
			candidates: []string{"web-api", "api-b", "api", "api-a"},
			want:       []string{"api-b", "api", "api-a", "web-api"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := MatchAll("api", tt.candidates)
			var got []string
			for _, r := range results {
				got = append(got, r.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchAll order = %v, want %v", got, tt.want)
			}
		})
	}
}
