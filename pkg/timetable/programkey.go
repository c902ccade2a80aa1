package timetable

import (
	"strings"

	"github.com/arnavshah/od-resolver-go/pkg/fuzzy"
)

// fuzzyProgramThreshold is stricter than fuzzy.DefaultThreshold: two
// programs must never be merged on a near miss.
const fuzzyProgramThreshold = 0.9

var abbreviations = map[string]string{
	"cse": "computer science engineering",
	"it":  "information technology",
	"ece": "electronics and communication engineering",
	"bca": "bachelor of computer applications",
	"mca": "master of computer applications",
}

// FindProgramKey resolves a normalized program name to a key of p. It tries
// an exact case-insensitive match, then containment between normalized
// variants, then edit distance. ok is false when nothing resolves.
func (p *Programs) FindProgramKey(program string) (key string, kind MatchKind, ok bool) {
	trimmed := strings.TrimSpace(program)
	if trimmed == "" {
		return "", MatchExact, false
	}
	for _, k := range p.keys {
		if strings.EqualFold(strings.TrimSpace(k), trimmed) {
			return k, MatchExact, true
		}
	}

	targets := programVariants(trimmed)
	bestDiff := -1
	for _, k := range p.keys {
		for _, v := range programVariants(k) {
			for _, t := range targets {
				if !containsWords(v, t) && !containsWords(t, v) {
					continue
				}
				diff := len(v) - len(t)
				if diff < 0 {
					diff = -diff
				}
				if bestDiff < 0 || diff < bestDiff {
					key, bestDiff = k, diff
				}
			}
		}
	}
	if bestDiff >= 0 {
		return key, MatchVariant, true
	}

	best := 0.0
	for _, k := range p.keys {
		for _, v := range programVariants(k) {
			for _, t := range targets {
				if s := fuzzy.Similarity(v, t); s >= fuzzyProgramThreshold && s > best {
					key, best = k, s
				}
			}
		}
	}
	if best > 0 {
		return key, MatchFuzzy, true
	}
	return "", MatchExact, false
}

// programVariants returns the spellings a program name is compared under:
// punctuation stripped, B.Tech written both ways, and abbreviations
// expanded.
func programVariants(name string) []string {
	base := fuzzy.Clean(name)
	if base == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	add(base)
	add(strings.ReplaceAll(base, "b tech", "btech"))
	withoutDegree := strings.TrimSpace(strings.TrimPrefix(strings.ReplaceAll(base, "b tech", "btech"), "btech"))
	add(withoutDegree)

	for _, v := range append([]string(nil), out...) {
		words := strings.Fields(v)
		expanded := false
		for i, w := range words {
			if long, ok := abbreviations[w]; ok {
				words[i] = long
				expanded = true
			}
		}
		if expanded {
			add(strings.Join(words, " "))
		}
	}
	return out
}

// containsWords reports whether needle occurs in haystack on word boundaries
func containsWords(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
