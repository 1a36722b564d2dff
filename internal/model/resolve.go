package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// SuggestionCutoff is the minimum similarity for a candidate to be offered
// as a "did you mean" suggestion.
const SuggestionCutoff = 0.6

// LookupError reports an identifier that did not exactly match a record.
type LookupError struct {
	Identifier string
	Suggestion string // empty when nothing came close
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("'%s' does not exist.", e.Identifier)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("\nDid you mean '%s'?", e.Suggestion)
	}
	return msg
}

// Similarity returns a score in [0, 1] derived from the edit distance
// between a and b; identical strings score 1.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// ClosestMatch returns the candidate most similar to s whose similarity is
// at least SuggestionCutoff. Ties keep the earliest candidate.
func ClosestMatch(s string, candidates []string) (string, bool) {
	best, bestScore := "", -1.0
	for _, c := range candidates {
		score := Similarity(s, c)
		if score < SuggestionCutoff {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}

// Resolve checks identifier against the live identifier values of an entity
// kind. It never corrects: the identifier is returned only when the closest
// candidate is exactly equal to it; otherwise the closest candidate is
// carried as a suggestion in a *LookupError.
func Resolve(identifier string, candidates []string) (string, error) {
	match, ok := ClosestMatch(identifier, candidates)
	if !ok || match != identifier {
		return "", &LookupError{Identifier: identifier, Suggestion: match}
	}
	return match, nil
}
