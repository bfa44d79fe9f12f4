package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/andreasabel/xrefcheck/internal/models"
	"github.com/andreasabel/xrefcheck/internal/pathutil"
)

// Block headers are stable strings users grep for in CI logs.
const (
	scanErrorsHeader  = "=== Scan errors found ==="
	invalidRefsHeader = "=== Invalid references found ==="
	copyPasteHeader   = "=== Possible copy/paste errors ==="
)

// ScanErrors prints the scan error block, grouped by file. Errors are
// expected presorted by (file, position). Prints nothing when the slice is
// empty.
func ScanErrors(out io.Writer, root string, errs []models.ScanError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(out, "%s\n\n", color.RedString(scanErrorsHeader))

	current := ""
	for _, e := range errs {
		if e.File != current {
			if current != "" {
				fmt.Fprintln(out)
			}
			current = e.File
			fmt.Fprintf(out, "In file %s:\n", color.CyanString(displayPath(root, e.File)))
		}
		fmt.Fprintf(out, "  %s\n", positioned(e.Position, e.Description()))
	}

	fmt.Fprintf(out, "\nFound %d scan %s.\n", len(errs), plural(len(errs), "error", "errors"))
}

// VerifyErrors prints the invalid reference block, grouped by file. Issues
// are expected presorted by (file, position). Prints nothing when the slice
// is empty.
func VerifyErrors(out io.Writer, root string, issues []models.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(out, "%s\n\n", color.RedString(invalidRefsHeader))

	current := ""
	for _, is := range issues {
		if is.File != current {
			if current != "" {
				fmt.Fprintln(out)
			}
			current = is.File
			fmt.Fprintf(out, "In file %s:\n", color.CyanString(displayPath(root, is.File)))
		}
		ref := is.Reference
		fmt.Fprintf(out, "  %s\n", positioned(ref.Position, fmt.Sprintf("%q -> %s", ref.Text, target(ref))))
		fmt.Fprintf(out, "%s\n", indent(is.Err.Error(), "    "))
	}

	fmt.Fprintf(out, "\nFound %d invalid %s.\n", len(issues), plural(len(issues), "reference", "references"))
}

// CopyPastes prints the advisory copy/paste block, grouped by file. Prints
// nothing when the slice is empty.
func CopyPastes(out io.Writer, root string, pairs []models.CopyPaste) {
	if len(pairs) == 0 {
		return
	}
	fmt.Fprintf(out, "%s\n\n", color.YellowString(copyPasteHeader))

	current := ""
	for _, cp := range pairs {
		if cp.File != current {
			if current != "" {
				fmt.Fprintln(out)
			}
			current = cp.File
			fmt.Fprintf(out, "In file %s:\n", color.CyanString(displayPath(root, cp.File)))
		}
		fmt.Fprintf(out, "  %s\n", positioned(cp.Copy.Position, fmt.Sprintf("%q -> %s", cp.Copy.Text, target(cp.Copy))))
		fmt.Fprintf(out, "    text looks copied from %q%s\n", cp.Original.Text, at(cp.Original.Position))
	}

	fmt.Fprintf(out, "\nFound %d possible copy/paste %s.\n", len(pairs), plural(len(pairs), "error", "errors"))
}

// Success prints the all-clear line for runs without errors.
func Success(out io.Writer) {
	fmt.Fprintf(out, "%s All references are valid.\n", color.GreenString("✓"))
}

// RepoDump prints the scanned repository model, for --verbose runs.
func RepoDump(out io.Writer, repo *models.RepoInfo) {
	fmt.Fprintf(out, "%s\n\n", color.CyanString("=== Repository info ==="))

	paths := make([]string, 0, len(repo.Files))
	for p := range repo.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		f := repo.Files[path]
		rel := displayPath(repo.Root, path)
		switch f.Status {
		case models.FileScanned:
			fmt.Fprintf(out, "%s (scanned)\n", rel)
			dumpFileInfo(out, f.Info)
		case models.FileNotScannable:
			fmt.Fprintf(out, "%s (not scannable)\n", rel)
		case models.FileNotAddedToGit:
			fmt.Fprintf(out, "%s (not added to git)\n", rel)
		}
	}
	fmt.Fprintln(out)
}

func dumpFileInfo(out io.Writer, info *models.FileInfo) {
	if len(info.References) > 0 {
		fmt.Fprintln(out, "  references:")
		for _, r := range info.References {
			line := positioned(r.Position, fmt.Sprintf("%q -> %s (%s)", r.Text, target(r), r.LocationType()))
			if r.Ignored {
				line += " [ignored]"
			}
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
	if len(info.Anchors) > 0 {
		fmt.Fprintln(out, "  anchors:")
		for _, a := range info.Anchors {
			fmt.Fprintf(out, "    %s\n", a.Describe())
		}
	}
}

// displayPath relativizes a canonical path for output, falling back to the
// path itself when it lies outside the root.
func displayPath(root, path string) string {
	if rel, ok := pathutil.RelativeTo(root, path); ok {
		return rel
	}
	return path
}

// target renders a reference destination, naming the location type when the
// reference points nowhere textual (an empty link with no fragment).
func target(r models.Reference) string {
	if t := r.Target(); t != "" {
		return t
	}
	return "(" + r.LocationType().String() + ")"
}

func positioned(pos models.Position, rest string) string {
	if p := pos.String(); p != "" {
		return p + ": " + rest
	}
	return rest
}

func at(pos models.Position) string {
	if p := pos.String(); p != "" {
		return " at " + p
	}
	return ""
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
