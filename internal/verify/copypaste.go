package verify

import (
	"strings"
	"unicode"

	"github.com/andreasabel/xrefcheck/internal/models"
)

// DetectCopyPaste flags references whose text looks copied from a sibling
// reference to the same target. The tell-tale shape: several links to one
// target where some texts name the target and others name something else
// entirely, which usually means a pasted link whose text was never updated.
func DetectCopyPaste(repo *models.RepoInfo) []models.CopyPaste {
	var results []models.CopyPaste
	for _, file := range repo.ScannedFiles() {
		results = append(results, detectInFile(file, repo.Files[file].Info.References)...)
	}
	return results
}

// detectInFile groups check-enabled references by target and pairs the
// first reference naming its target with every reference that does not.
// Groups where nobody or everybody names the target stay silent.
func detectInFile(file string, refs []models.Reference) []models.CopyPaste {
	type target struct {
		link, anchor string
	}
	groups := make(map[target][]models.Reference)
	var order []target
	for _, r := range refs {
		if !r.CopyPasteCheck {
			continue
		}
		k := target{link: r.Link, anchor: r.Anchor}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out []models.CopyPaste
	for _, k := range order {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		prepTarget := prepare(k.link) + prepare(k.anchor)

		var original *models.Reference
		var copies []models.Reference
		for i := range group {
			if namesTarget(group[i].Text, prepTarget) {
				if original == nil {
					original = &group[i]
				}
			} else {
				copies = append(copies, group[i])
			}
		}
		if original == nil {
			continue
		}
		for _, c := range copies {
			out = append(out, models.CopyPaste{File: file, Original: *original, Copy: c})
		}
	}
	return out
}

// prepare folds a string down to what matters for the comparison: lower
// case letters and digits, everything else dropped.
func prepare(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// namesTarget reports whether the reference text plausibly names the
// prepared target: empty texts and texts occurring inside the target do.
func namesTarget(text, prepTarget string) bool {
	p := prepare(text)
	return p == "" || strings.Contains(prepTarget, p)
}
