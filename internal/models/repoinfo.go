package models

import "sort"

// FileInfo is everything the scanner extracted from one document, in
// document order.
type FileInfo struct {
	References []Reference
	Anchors    []Anchor
}

// FileStatus tells how far the repository scan got with a file.
type FileStatus int

const (
	// FileScanned means the file was parsed and File.Info is populated.
	FileScanned FileStatus = iota
	// FileNotScannable means the file is present but no scanner claims its
	// extension. References to such files are accepted without inspection.
	FileNotScannable
	// FileNotAddedToGit means the file has a scannable extension but git
	// does not track it, so the scan skipped it.
	FileNotAddedToGit
)

// File pairs a file's scan status with its extracted contents.
type File struct {
	Status FileStatus
	// Info is non-nil only when Status is FileScanned.
	Info *FileInfo
}

// DirStatus records how a directory became known to the scan.
type DirStatus int

const (
	// DirTracked directories contain at least one tracked file.
	DirTracked DirStatus = iota
	// DirUntracked directories were discovered through untracked files only.
	DirUntracked
)

// RepoInfo is the immutable result of scanning a repository. Map keys are
// canonical absolute paths built from the resolved root.
type RepoInfo struct {
	Root        string
	Files       map[string]File
	Directories map[string]DirStatus
}

// File looks up a canonical path among the scanned files.
func (r *RepoInfo) File(path string) (File, bool) {
	f, ok := r.Files[path]
	return f, ok
}

// Dir looks up a canonical path among the known directories.
func (r *RepoInfo) Dir(path string) (DirStatus, bool) {
	d, ok := r.Directories[path]
	return d, ok
}

// ScannedFiles returns the canonical paths of all scanned files in sorted
// order, for deterministic iteration.
func (r *RepoInfo) ScannedFiles() []string {
	paths := make([]string, 0, len(r.Files))
	for path, f := range r.Files {
		if f.Status == FileScanned {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}
