package anchor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/andreasabel/xrefcheck/internal/models"
)

// separator stands in for spaces and pluses while the slug is assembled.
// It can never appear in input because it is filtered out of headings.
const separator = '\x00'

// githubSlug converts heading text into the anchor the hosting platform
// generates for it. The text is lowercased, runs of spaces and pluses merge
// into a single hyphen unless they touch an existing hyphen, and every
// character that is not a Unicode letter, digit, underscore or hyphen is
// dropped.
func githubSlug(text string) string {
	lower := strings.ToLower(text)

	runes := make([]rune, 0, len(lower))
	for _, r := range lower {
		if r == ' ' || r == '+' {
			r = separator
		}
		runes = append(runes, r)
	}

	collapsed := runes[:0]
	for _, r := range runes {
		if r == separator && len(collapsed) > 0 && collapsed[len(collapsed)-1] == separator {
			continue
		}
		collapsed = append(collapsed, r)
	}

	var b strings.Builder
	for i, r := range collapsed {
		if r == separator {
			prevHyphen := i > 0 && collapsed[i-1] == '-'
			nextHyphen := i+1 < len(collapsed) && collapsed[i+1] == '-'
			if !prevHyphen && !nextHyphen {
				b.WriteRune('-')
			}
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NumberDuplicates renames repeated header slugs within one document so
// each anchor name stays addressable: the first occurrence keeps the bare
// slug, later ones get -1, -2, ... in document order. Handmade and biblio
// anchors keep their literal names.
func NumberDuplicates(anchors []models.Anchor) {
	seen := make(map[string]int)
	for i := range anchors {
		if anchors[i].Kind != models.AnchorHeader {
			continue
		}
		name := anchors[i].Name
		n := seen[name]
		seen[name] = n + 1
		if n > 0 {
			anchors[i].Name = fmt.Sprintf("%s-%d", name, n)
		}
	}
}

// StripDupSuffix undoes NumberDuplicates, returning the bare slug and true
// when name carries a trailing -N numbering.
func StripDupSuffix(name string) (string, bool) {
	i := strings.LastIndexByte(name, '-')
	if i <= 0 || i == len(name)-1 {
		return name, false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return name, false
		}
	}
	return name[:i], true
}
