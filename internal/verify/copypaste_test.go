package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasabel/xrefcheck/internal/models"
)

func cpRef(text, link, anchor string, check bool) models.Reference {
	return models.Reference{Text: text, Link: link, Anchor: anchor, CopyPasteCheck: check}
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, "firstfile", prepare("./first-file"))
	assert.Equal(t, "httpsgithubcom", prepare("https://github.com"))
	assert.Equal(t, "first2file", prepare(" _- First 2 -  - FILE "))
	assert.Equal(t, "", prepare(" -_- "))
}

func TestCopyPasteNamingAndForeignTexts(t *testing.T) {
	refs := []models.Reference{
		cpRef("_-  First -  - File", "./first-file", "heading", true),
		cpRef("_-  First - fi - le", "./first-file", "heading", true),
		cpRef(" foo bar", "./first-file", "heading", true),
		cpRef(" Baz quux", "./first-file", "heading", true),
		cpRef(" Qib yse", "./first-file", "heading", false),
		cpRef(" Link 2 ", "./first-file", "", true),
	}

	got := detectInFile("doc.md", refs)
	require.Len(t, got, 2)

	assert.Equal(t, refs[0], got[0].Original)
	assert.Equal(t, refs[2], got[0].Copy)
	assert.Equal(t, refs[0], got[1].Original)
	assert.Equal(t, refs[3], got[1].Copy)
	assert.Equal(t, "doc.md", got[0].File)
}

func TestCopyPasteAllForeignTextsStaySilent(t *testing.T) {
	refs := []models.Reference{
		cpRef("alpha", "./file", "sec", true),
		cpRef("beta", "./file", "sec", true),
		cpRef("gamma", "./file", "sec", true),
	}

	assert.Empty(t, detectInFile("doc.md", refs))
}

func TestCopyPasteUncheckedOriginalStaysSilent(t *testing.T) {
	// The only reference naming the target opted out of the check, so the
	// group has no original to pair the others with.
	refs := []models.Reference{
		cpRef("file sec", "./file", "sec", false),
		cpRef("alpha", "./file", "sec", true),
		cpRef("beta", "./file", "sec", true),
	}

	assert.Empty(t, detectInFile("doc.md", refs))
}

func TestCopyPasteExternalTarget(t *testing.T) {
	refs := []models.Reference{
		cpRef("github", "https://github.com", "", true),
		cpRef("gitlab", "https://github.com", "", true),
	}

	got := detectInFile("doc.md", refs)
	require.Len(t, got, 1)
	assert.Equal(t, refs[0], got[0].Original)
	assert.Equal(t, refs[1], got[0].Copy)
}

func TestCopyPasteEmptyTextNamesAnything(t *testing.T) {
	refs := []models.Reference{
		cpRef("", "./a.md", "", true),
		cpRef("see elsewhere", "./a.md", "", true),
	}

	got := detectInFile("doc.md", refs)
	require.Len(t, got, 1)
	assert.Equal(t, refs[1].Text, got[0].Copy.Text)
}

func TestCopyPasteGroupsByFullTarget(t *testing.T) {
	// Same link, different anchors: two independent groups, neither large
	// enough to pair.
	refs := []models.Reference{
		cpRef("other", "./file.md", "one", true),
		cpRef("other", "./file.md", "two", true),
	}

	assert.Empty(t, detectInFile("doc.md", refs))
}

func TestDetectCopyPasteAcrossRepo(t *testing.T) {
	repo := &models.RepoInfo{
		Root: "/repo",
		Files: map[string]models.File{
			"/repo/a.md": {
				Status: models.FileScanned,
				Info: &models.FileInfo{References: []models.Reference{
					cpRef("github", "https://github.com", "", true),
					cpRef("gitlab", "https://github.com", "", true),
				}},
			},
			"/repo/b.md":     {Status: models.FileScanned, Info: &models.FileInfo{}},
			"/repo/logo.png": {Status: models.FileNotScannable},
		},
	}

	got := DetectCopyPaste(repo)
	require.Len(t, got, 1)
	assert.Equal(t, "/repo/a.md", got[0].File)
	assert.Equal(t, "gitlab", got[0].Copy.Text)
}
