package anchor

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/andreasabel/xrefcheck/internal/models"
)

// Similarity scores how close two anchor names are, from 0 (nothing in
// common) to 1 (equal): the Levenshtein distance normalized by the longer
// name's rune length.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Suggestions lists the available anchor names similar to the requested
// one, best match first, ties broken alphabetically. Numbered duplicates
// are also compared by their bare slug so a close miss on "intro" still
// surfaces "intro-2".
func Suggestions(requested string, available []models.Anchor, threshold float64) []string {
	type candidate struct {
		name  string
		score float64
	}
	var matches []candidate
	seen := make(map[string]bool)
	for _, a := range available {
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true

		score := Similarity(requested, a.Name)
		if bare, ok := StripDupSuffix(a.Name); ok {
			if s := Similarity(requested, bare); s > score {
				score = s
			}
		}
		if score >= threshold {
			matches = append(matches, candidate{a.Name, score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].name < matches[j].name
	})

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}
