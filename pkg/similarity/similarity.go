// Package similarity provides lightweight lexical similarity scoring for
// text fragments.
//
// It is used by the knowledge graph for auto-linking related nodes without
// requiring embedding vectors: similarity is computed from word-set overlap,
// which is cheap, deterministic, and good enough for short voice-memo
// transcripts.
package similarity

import "strings"

// Match represents a scored candidate from a similarity search.
type Match struct {
	// ID is the identifier of the matched candidate.
	ID string

	// Score is the similarity score (0.0-1.0).
	Score float64
}

// Tokenize splits text into lowercase whitespace-delimited tokens.
//
// Tokenization is intentionally simple: the voice-memo domain produces short
// transcripts where word overlap is a reasonable relatedness signal.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Score computes the lexical similarity between two texts.
//
// The formula is:
//
//	similarity = |shared word set| / max(word count of a, word count of b)
//
// Comparison is case-insensitive and whitespace-tokenized. Returns a value
// between 0.0 and 1.0, where 1.0 means every word of the longer text appears
// in the other. Two empty texts score 0.0.
func Score(a, b string) float64 {
	wordsA := Tokenize(a)
	wordsB := Tokenize(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}

	seen := make(map[string]struct{}, len(wordsB))
	shared := 0
	for _, w := range wordsB {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := setA[w]; ok {
			shared++
		}
	}

	maxLen := len(wordsA)
	if len(wordsB) > maxLen {
		maxLen = len(wordsB)
	}

	return float64(shared) / float64(maxLen)
}

// TopMatches scores text against a set of candidates and returns the best
// matches above the threshold.
//
// Parameters:
//   - text: The text to compare
//   - candidates: Map of candidate ID to candidate text
//   - threshold: Minimum similarity score (exclusive) for a match to qualify
//   - limit: Maximum number of matches to return (0 means unlimited)
//
// Returns matches sorted by score (highest first). Ties are broken by ID to
// keep results deterministic.
func TopMatches(text string, candidates map[string]string, threshold float64, limit int) []Match {
	matches := make([]Match, 0, len(candidates))
	for id, candidate := range candidates {
		score := Score(text, candidate)
		if score > threshold {
			matches = append(matches, Match{ID: id, Score: score})
		}
	}

	// Insertion sort by score descending, ID ascending. Candidate sets are
	// small after thresholding, so this beats pulling in sort for clarity.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0; j-- {
			if matches[j].Score > matches[j-1].Score ||
				(matches[j].Score == matches[j-1].Score && matches[j].ID < matches[j-1].ID) {
				matches[j], matches[j-1] = matches[j-1], matches[j]
			} else {
				break
			}
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
