package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/andreasabel/xrefcheck/internal/config"
	"github.com/andreasabel/xrefcheck/internal/logger"
	"github.com/andreasabel/xrefcheck/internal/models"
	"github.com/andreasabel/xrefcheck/internal/parser"
	"github.com/andreasabel/xrefcheck/internal/pathutil"
)

// Mode selects which files the repository scan covers.
type Mode int

const (
	// OnlyTracked scans files git tracks. Untracked files with a
	// scannable extension are recorded so their absence can be explained.
	OnlyTracked Mode = iota
	// IncludeUntracked also scans untracked files, still honoring the
	// .gitignore rules.
	IncludeUntracked
)

// Scanner walks the repository and assembles the RepoInfo the verifier
// works on.
type Scanner struct {
	lister   FileLister
	registry *parser.Registry
	cfg      *config.Config
	log      logger.Logger
}

// New creates a Scanner. A nil log disables logging.
func New(lister FileLister, registry *parser.Registry, cfg *config.Config, log logger.Logger) *Scanner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Scanner{
		lister:   lister,
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// Scan enumerates and parses the repository under root, which must be a
// canonical absolute path. Parse errors never abort the scan; they come
// back sorted by file and position. The error return is reserved for
// enumeration failures.
func (s *Scanner) Scan(root string, mode Mode) (*models.RepoInfo, []models.ScanError, error) {
	start := time.Now()

	tracked, err := s.lister.Tracked()
	if err != nil {
		return nil, nil, fmt.Errorf("listing tracked files: %w", err)
	}
	untracked, err := s.lister.Untracked()
	if err != nil {
		return nil, nil, fmt.Errorf("listing untracked files: %w", err)
	}

	repo := &models.RepoInfo{
		Root:        root,
		Files:       make(map[string]models.File),
		Directories: map[string]models.DirStatus{root: models.DirTracked},
	}

	var scanErrs []models.ScanError
	for _, rel := range tracked {
		scanErrs = append(scanErrs, s.addFile(repo, rel, models.DirTracked)...)
	}

	switch mode {
	case IncludeUntracked:
		for _, rel := range untracked {
			scanErrs = append(scanErrs, s.addFile(repo, rel, models.DirUntracked)...)
		}
	default:
		for _, rel := range untracked {
			s.noteUntracked(repo, rel)
		}
	}

	sort.Slice(scanErrs, func(i, j int) bool {
		if scanErrs[i].File != scanErrs[j].File {
			return scanErrs[i].File < scanErrs[j].File
		}
		return scanErrs[i].Position.Before(scanErrs[j].Position)
	})

	s.log.LogDebug(fmt.Sprintf("Scanned %d files (%d listed), %d scan errors, took %s",
		len(repo.Files), len(tracked)+len(untracked), len(scanErrs), time.Since(start).Round(time.Millisecond)))

	return repo, scanErrs, nil
}

// addFile records one listed file, parsing it when a scanner claims its
// extension.
func (s *Scanner) addFile(repo *models.RepoInfo, rel string, dirStatus models.DirStatus) []models.ScanError {
	if s.excluded(rel) {
		return nil
	}
	abs := pathutil.Join(repo.Root, rel)
	if _, ok := repo.Files[abs]; ok {
		return nil
	}
	if _, err := os.Stat(abs); err != nil {
		// Listed in the index but absent from the working tree, e.g. a
		// deletion not yet committed.
		s.log.LogDebug(fmt.Sprintf("Skipping %s: %v", rel, err))
		return nil
	}

	sc, ok := s.registry.Lookup(rel)
	if !ok {
		repo.Files[abs] = models.File{Status: models.FileNotScannable}
		addDirs(repo, abs, dirStatus)
		return nil
	}

	info, perrs, err := sc.Scan(abs)
	if err != nil {
		s.log.LogWarn(fmt.Sprintf("Cannot scan %s: %v", rel, err))
		repo.Files[abs] = models.File{Status: models.FileNotScannable}
		addDirs(repo, abs, dirStatus)
		return nil
	}

	repo.Files[abs] = models.File{Status: models.FileScanned, Info: info}
	addDirs(repo, abs, dirStatus)

	scanErrs := make([]models.ScanError, 0, len(perrs))
	for _, pe := range perrs {
		scanErrs = append(scanErrs, models.ScanError{File: abs, ParseError: pe})
	}
	return scanErrs
}

// noteUntracked records a scannable untracked file without parsing it, so
// the verifier can explain references into it and the report can warn.
func (s *Scanner) noteUntracked(repo *models.RepoInfo, rel string) {
	if s.excluded(rel) {
		return
	}
	if _, ok := s.registry.Lookup(rel); !ok {
		return
	}
	abs := pathutil.Join(repo.Root, rel)
	if _, ok := repo.Files[abs]; ok {
		return
	}
	repo.Files[abs] = models.File{Status: models.FileNotAddedToGit}
	addDirs(repo, abs, models.DirUntracked)
}

func (s *Scanner) excluded(rel string) bool {
	return pathutil.MatchesAny(s.cfg.Exclusions.Ignore, rel)
}

// addDirs records every directory between the file and the root. A tracked
// file marks its whole chain tracked; untracked files never downgrade a
// directory already known as tracked.
func addDirs(repo *models.RepoInfo, path string, status models.DirStatus) {
	for dir := filepath.Dir(path); len(dir) > len(repo.Root); dir = filepath.Dir(dir) {
		if status == models.DirTracked {
			repo.Directories[dir] = models.DirTracked
		} else if _, ok := repo.Directories[dir]; !ok {
			repo.Directories[dir] = models.DirUntracked
		}
	}
}

// UntrackedScannable lists the root-relative paths recorded as not added
// to git, sorted, for the scan warning.
func UntrackedScannable(repo *models.RepoInfo) []string {
	var rels []string
	for path, f := range repo.Files {
		if f.Status != models.FileNotAddedToGit {
			continue
		}
		if rel, ok := pathutil.RelativeTo(repo.Root, path); ok {
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)
	return rels
}
