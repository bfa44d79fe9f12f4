package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/models"
)

func scanDoc(t *testing.T, flavor anchor.Flavor, src string) (*models.FileInfo, []models.ParseError) {
	t.Helper()
	info, errs := NewMarkdownScanner(flavor).ScanDocument([]byte(src))
	require.NotNil(t, info)
	return info, errs
}

func refByText(t *testing.T, refs []models.Reference, text string) models.Reference {
	t.Helper()
	for _, r := range refs {
		if r.Text == text {
			return r
		}
	}
	t.Fatalf("no reference with text %q", text)
	return models.Reference{}
}

func anchorNames(anchors []models.Anchor) []string {
	names := make([]string, 0, len(anchors))
	for _, a := range anchors {
		names = append(names, a.Name)
	}
	return names
}

func TestMarkdownHeadingAnchors(t *testing.T) {
	src := `# Top Header

some text

## Sub+Section!

### Sub Section
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.Anchors, 3)

	assert.Equal(t, []string{"top-header", "sub-section", "sub-section-1"}, anchorNames(info.Anchors))
	assert.Equal(t, models.AnchorHeader, info.Anchors[0].Kind)
	assert.Equal(t, 1, info.Anchors[0].Level)
	assert.Equal(t, 2, info.Anchors[1].Level)
	assert.Equal(t, 3, info.Anchors[2].Level)
	assert.Equal(t, 1, info.Anchors[0].Position.Line)
	assert.Equal(t, 5, info.Anchors[1].Position.Line)
	assert.Equal(t, 7, info.Anchors[2].Position.Line)
}

func TestMarkdownSetextHeading(t *testing.T) {
	src := "Title Text\n==========\n\nbody\n"
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.Anchors, 1)
	assert.Equal(t, "title-text", info.Anchors[0].Name)
	assert.Equal(t, 1, info.Anchors[0].Level)
	assert.Equal(t, 1, info.Anchors[0].Position.Line)
}

func TestMarkdownReferences(t *testing.T) {
	src := `Read [the docs](docs/usage.md) and [intro](#intro).

![logo](images/logo.png)

Visit <https://example.com/page> or mail <sales@example.com>.

Raw https://example.org/bare link.

[ref style][label]

[label]: https://example.net/target
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 7)

	docs := refByText(t, info.References, "the docs")
	assert.Equal(t, "docs/usage.md", docs.Link)
	assert.Empty(t, docs.Anchor)
	assert.Equal(t, models.LocRelative, docs.LocationType())
	assert.Equal(t, 1, docs.Position.Line)

	intro := refByText(t, info.References, "intro")
	assert.Empty(t, intro.Link)
	assert.Equal(t, "intro", intro.Anchor)
	assert.Equal(t, models.LocSameFile, intro.LocationType())

	logo := refByText(t, info.References, "logo")
	assert.Equal(t, "images/logo.png", logo.Link)
	assert.Equal(t, 3, logo.Position.Line)

	page := refByText(t, info.References, "https://example.com/page")
	assert.Equal(t, "https://example.com/page", page.Link)
	assert.Equal(t, models.LocExternal, page.LocationType())

	mail := refByText(t, info.References, "sales@example.com")
	assert.Equal(t, "mailto:sales@example.com", mail.Link)
	assert.Equal(t, models.LocOther, mail.LocationType())

	bare := refByText(t, info.References, "https://example.org/bare")
	assert.Equal(t, "https://example.org/bare", bare.Link)

	ref := refByText(t, info.References, "ref style")
	assert.Equal(t, "https://example.net/target", ref.Link)

	require.Len(t, info.Anchors, 1)
	assert.Equal(t, models.AnchorBiblio, info.Anchors[0].Kind)
	assert.Equal(t, "label", info.Anchors[0].Name)
}

func TestMarkdownAnchorFragmentDecoding(t *testing.T) {
	src := `[one](./a.md#section-one)
[two](./b.md#%D1%80%D0%B0%D0%B7%D0%B4%D0%B5%D0%BB)
[three](./c.md#a%20b)
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)

	assert.Equal(t, "section-one", refByText(t, info.References, "one").Anchor)
	assert.Equal(t, "раздел", refByText(t, info.References, "two").Anchor)
	assert.Equal(t, "a b", refByText(t, info.References, "three").Anchor)
	assert.Equal(t, "./b.md", refByText(t, info.References, "two").Link)
}

func TestMarkdownHandmadeAnchors(t *testing.T) {
	src := `<a name="top"></a>

Some text <a id='inline-anchor'></a> more.

<div>
<a name="inside-div"></a>
</div>
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.Anchors, 3)

	assert.Equal(t, []string{"top", "inline-anchor", "inside-div"}, anchorNames(info.Anchors))
	for _, a := range info.Anchors {
		assert.Equal(t, models.AnchorHandmade, a.Kind)
	}
	assert.Equal(t, 1, info.Anchors[0].Position.Line)
	assert.Equal(t, 3, info.Anchors[1].Position.Line)
	assert.Equal(t, 5, info.Anchors[2].Position.Line)
}

func TestHandmadeAnchorNames(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string
	}{
		{"double quoted name", `<a name="x">`, []string{"x"}},
		{"single quoted id", `<a id='y'>`, []string{"y"}},
		{"bare value", `<a name=bare>`, []string{"bare"}},
		{"uppercase tag", `<A NAME="up">`, []string{"up"}},
		{"href only is not an anchor", `<a href="z">`, nil},
		{"two anchors in one chunk", `<a name="first"></a><a id="second"></a>`, []string{"first", "second"}},
		{"empty name skipped", `<a name="">`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handmadeAnchors([]byte(tt.html)))
		})
	}
}

func TestMarkdownIgnoreLink(t *testing.T) {
	src := `<!-- xrefcheck: ignore link -->
[dead](./missing.md)

[live](./exists.md)
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 2)

	dead := refByText(t, info.References, "dead")
	assert.True(t, dead.Ignored)
	assert.False(t, dead.CopyPasteCheck)

	live := refByText(t, info.References, "live")
	assert.False(t, live.Ignored)
	assert.True(t, live.CopyPasteCheck)
}

func TestMarkdownIgnoreLinkInline(t *testing.T) {
	src := "Some text <!-- xrefcheck: ignore link --> [skipped](./a.md) and [kept](./b.md).\n"
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)

	assert.True(t, refByText(t, info.References, "skipped").Ignored)
	assert.False(t, refByText(t, info.References, "kept").Ignored)
}

func TestMarkdownIgnoreLinkExpectedError(t *testing.T) {
	src := `<!-- xrefcheck: ignore link -->
just text, no link
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ParseErrLinkExpected, errs[0].Kind)
	assert.Equal(t, 1, errs[0].Position.Line)
	assert.Empty(t, info.References)
}

func TestMarkdownIgnoreLinkAtEndOfFile(t *testing.T) {
	src := `some text

<!-- xrefcheck: ignore link -->
`
	_, errs := scanDoc(t, anchor.GitHub, src)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ParseErrLinkExpected, errs[0].Kind)
	assert.Equal(t, 3, errs[0].Position.Line)
}

func TestMarkdownIgnoreParagraph(t *testing.T) {
	src := `<!-- xrefcheck: ignore paragraph -->
This [one](./a.md) and [two](./b.md) are skipped.

But [three](./c.md) is checked.
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 3)

	assert.True(t, refByText(t, info.References, "one").Ignored)
	assert.True(t, refByText(t, info.References, "two").Ignored)
	assert.False(t, refByText(t, info.References, "three").Ignored)
}

func TestMarkdownIgnoreParagraphExpectedError(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		found string
	}{
		{"blockquote", "<!-- xrefcheck: ignore paragraph -->\n> quoted\n", "Blockquote"},
		{"heading", "<!-- xrefcheck: ignore paragraph -->\n# Header\n", "Heading"},
		{"end of file", "<!-- xrefcheck: ignore paragraph -->\n", "end of file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := scanDoc(t, anchor.GitHub, tt.src)
			require.Len(t, errs, 1)
			assert.Equal(t, models.ParseErrParagraphExpected, errs[0].Kind)
			assert.Equal(t, tt.found, errs[0].Detail)
			assert.Equal(t, 1, errs[0].Position.Line)
		})
	}
}

func TestMarkdownIgnoreAll(t *testing.T) {
	src := `<!-- a leading comment -->
<!-- xrefcheck: ignore all -->

# Header

[a](./a.md) and <https://example.com>
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 2)
	for _, r := range info.References {
		assert.True(t, r.Ignored, "reference %q must be ignored", r.Text)
		assert.False(t, r.CopyPasteCheck)
	}

	// Anchors are still collected: other files may link here.
	assert.Equal(t, []string{"header"}, anchorNames(info.Anchors))
}

func TestMarkdownIgnoreAllMisplaced(t *testing.T) {
	src := `# Header

<!-- xrefcheck: ignore all -->

[a](./a.md)
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ParseErrIgnoreAllMisplaced, errs[0].Kind)
	assert.Equal(t, 3, errs[0].Position.Line)

	// The misplaced annotation has no effect.
	assert.False(t, refByText(t, info.References, "a").Ignored)
}

func TestMarkdownUnrecognisedOption(t *testing.T) {
	src := "<!-- xrefcheck: ignore lnik -->\n"
	_, errs := scanDoc(t, anchor.GitHub, src)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ParseErrUnrecognisedOption, errs[0].Kind)
	assert.Equal(t, "ignore lnik", errs[0].Detail)
}

func TestMarkdownPlainCommentsStayInert(t *testing.T) {
	src := `<!-- just a comment -->

[a](./a.md)

<!-- another
multiline comment -->
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 1)
	assert.False(t, info.References[0].Ignored)
	assert.Empty(t, info.Anchors)
}

func TestMarkdownBiblioAnchorsByFlavor(t *testing.T) {
	src := `See [docs][My Label].

[My Label]: https://example.com
`
	github, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, github.Anchors, 1)
	assert.Equal(t, models.AnchorBiblio, github.Anchors[0].Kind)
	assert.Equal(t, "my label", github.Anchors[0].Name)
	assert.Equal(t, 3, github.Anchors[0].Position.Line)

	gitlab, errs := scanDoc(t, anchor.GitLab, src)
	require.Empty(t, errs)
	assert.Empty(t, gitlab.Anchors)

	// The reference itself resolves in both flavors.
	assert.Equal(t, "https://example.com", refByText(t, gitlab.References, "docs").Link)
}

func TestMarkdownNestedEmphasisText(t *testing.T) {
	src := "[**Bold** and *italic*](./x.md)\n"
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)
	require.Len(t, info.References, 1)
	assert.Equal(t, "Bold and italic", info.References[0].Text)
}

func TestMarkdownReferencePositionsOrdered(t *testing.T) {
	src := `# H

[a](./a.md)

text [b](./b.md)
`
	info, errs := scanDoc(t, anchor.GitHub, src)
	require.Empty(t, errs)

	a := refByText(t, info.References, "a")
	b := refByText(t, info.References, "b")
	assert.Equal(t, 3, a.Position.Line)
	assert.Equal(t, 5, b.Position.Line)
	assert.True(t, a.Position.Before(b.Position))
}

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		dest string
		link string
		frag string
	}{
		{"a.md#sec", "a.md", "sec"},
		{"#x", "", "x"},
		{"no-frag.md", "no-frag.md", ""},
		{"a.md#b#c", "a.md", "b#c"},
		{`a\#b.md`, "a#b.md", ""},
		{`a\#b.md#c`, "a#b.md", "c"},
		{"dir/file.md#a%20b", "dir/file.md", "a b"},
		{"f%20ile.md#sec", "f%20ile.md", "sec"},
		{"https://host/page#frag", "https://host/page", "frag"},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			link, frag := splitFragment(tt.dest)
			assert.Equal(t, tt.link, link)
			assert.Equal(t, tt.frag, frag)
		})
	}
}

func TestMarkdownScanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\n[a](./a.md)\n"), 0o644))

	s := NewMarkdownScanner(anchor.GitHub)
	info, errs, err := s.Scan(path)
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Len(t, info.References, 1)
	assert.Len(t, info.Anchors, 1)

	_, _, err = s.Scan(filepath.Join(dir, "absent.md"))
	assert.Error(t, err)
}
