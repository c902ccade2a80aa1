// Package fuzzy implements the string similarity checks used for spreadsheet
// header detection and timetable program-key resolution.
package fuzzy

import (
	"regexp"
	"strings"
)

// DefaultThreshold is the similarity a pair needs when no cheaper rule matches
const DefaultThreshold = 0.7

var (
	nonWord    = regexp.MustCompile(`[^\w\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Clean lowercases and trims s, drops non-word characters and collapses whitespace
func Clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Levenshtein returns the edit distance between a and b with unit costs
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// matrix[i][j] is the distance between rb[:i] and ra[:j]
	matrix := make([][]int, len(rb)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(ra)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(ra); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(rb); i++ {
		for j := 1; j <= len(ra); j++ {
			if rb[i-1] == ra[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			matrix[i][j] = 1 + min(
				matrix[i-1][j-1], // substitute
				matrix[i][j-1],   // insert
				matrix[i-1][j],   // delete
			)
		}
	}
	return matrix[len(rb)][len(ra)]
}

// Similarity returns 1 - distance/maxLen over the cleaned forms of a and b
func Similarity(a, b string) float64 {
	return similarity(Clean(a), Clean(b))
}

func similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(longest)
}

// Match reports whether a and b should be treated as the same label.
// The rules are tried in order: exact, containment, shared word,
// abbreviation and finally Similarity >= threshold.
func Match(a, b string, threshold float64) bool {
	ca, cb := Clean(a), Clean(b)
	if ca == "" || cb == "" {
		return ca == cb
	}
	if ca == cb {
		return true
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return true
	}
	if SharesWord(ca, cb) {
		return true
	}
	if IsAbbreviation(ca, cb) {
		return true
	}
	return similarity(ca, cb) >= threshold
}

// SharesWord reports whether a and b have at least one whole word in common
func SharesWord(a, b string) bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		words[w] = true
	}
	for _, w := range strings.Fields(b) {
		if words[w] {
			return true
		}
	}
	return false
}

// IsAbbreviation reports whether the shorter of a and b is a prefix of the
// longer one and at most two characters shorter.
func IsAbbreviation(a, b string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if short == "" {
		return false
	}
	return strings.HasPrefix(long, short) && len(long)-len(short) <= 2
}
