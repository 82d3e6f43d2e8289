// Package fuzzy scores a typed query against workspace names as an ordered,
// case-insensitive subsequence.
package fuzzy

import (
	"sort"
	"unicode"
)

const (
	// MinScore is the lowest score MatchAll keeps.
	MinScore = 30

	baseScore        = 50
	startBonus       = 15
	consecutiveBonus = 10
	boundaryBonus    = 5
	exactCaseBonus   = 2
)

// Result is one candidate that survived MatchAll.
type Result struct {
	Index          int    // position of the candidate in the input slice
	Name           string // candidate text
	Score          int
	MatchedIndices []int // rune positions in Name, in query order
}

// Match scores query against candidate. Each query rune is matched against the
// next case-insensitive occurrence in candidate after the previous match. If any
// rune cannot be placed the match fails with score 0 and no indices.
//
// The score is not clamped and can be negative when matches are far apart.
func Match(query, candidate string) (int, []int) {
	q := []rune(query)
	c := []rune(candidate)

	indices := make([]int, 0, len(q))
	pos := 0
	for _, qr := range q {
		want := unicode.ToLower(qr)
		found := -1
		for j := pos; j < len(c); j++ {
			if unicode.ToLower(c[j]) == want {
				found = j
				break
			}
		}
		if found < 0 {
			return 0, nil
		}
		indices = append(indices, found)
		pos = found + 1
	}

	score := baseScore
	if len(indices) > 0 && indices[0] == 0 {
		score += startBonus
	}
	for i, idx := range indices {
		if i > 0 {
			prev := indices[i-1]
			if idx == prev+1 {
				score += consecutiveBonus
			}
			score -= idx - prev - 1
		}
		if idx == 0 || isBoundary(c[idx-1]) {
			score += boundaryBonus
		}
		if q[i] == c[idx] {
			score += exactCaseBonus
		}
	}

	return score, indices
}

// MatchAll runs Match against every candidate, drops results scoring below
// MinScore and orders the rest by score, highest first. Equal scores keep
// their input order.
func MatchAll(query string, candidates []string) []Result {
	results := make([]Result, 0, len(candidates))
	for i, name := range candidates {
		score, indices := Match(query, name)
		if score < MinScore {
			continue
		}
		results = append(results, Result{
			Index:          i,
			Name:           name,
			Score:          score,
			MatchedIndices: indices,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func isBoundary(r rune) bool {
	return r == '-' || r == '_' || r == '/'
}
