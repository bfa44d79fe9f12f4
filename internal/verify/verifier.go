// Package verify checks that every reference in a scanned repository
// resolves: local paths and anchors against the repository model, external
// URLs by probing them over HTTP.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/config"
	"github.com/andreasabel/xrefcheck/internal/logger"
	"github.com/andreasabel/xrefcheck/internal/models"
	"github.com/andreasabel/xrefcheck/internal/pathutil"
	"github.com/andreasabel/xrefcheck/internal/progress"
)

// Mode selects which reference families are verified.
type Mode int

const (
	// ModeFull checks local and external references.
	ModeFull Mode = iota
	// ModeLocalOnly skips external references.
	ModeLocalOnly
	// ModeExternalOnly skips local references.
	ModeExternalOnly
)

// ParseMode recognizes the --mode flag values.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "full":
		return ModeFull, nil
	case "local":
		return ModeLocalOnly, nil
	case "external":
		return ModeExternalOnly, nil
	default:
		return 0, fmt.Errorf("unknown verification mode %q, expected full, local or external", s)
	}
}

func (m Mode) checksLocal() bool    { return m != ModeExternalOnly }
func (m Mode) checksExternal() bool { return m != ModeLocalOnly }

// Options tunes a verification run.
type Options struct {
	Mode Mode

	// IncludeUntracked mirrors the scan mode: when set, untracked files
	// and directories satisfy local references.
	IncludeUntracked bool

	// Workers bounds concurrent external probes. Zero means the default.
	Workers int

	// Logger receives probe diagnostics. Nil disables logging.
	Logger logger.Logger
}

// defaultWorkers bounds concurrent external probes when Options.Workers is
// zero.
const defaultWorkers = 8

// refItem is one reference queued for checking, tied to its source file.
type refItem struct {
	file string
	ref  models.Reference
}

// Result aggregates one verification run. Copy-paste findings are advisory
// and do not make the run fail.
type Result struct {
	Issues     []models.Issue
	CopyPastes []models.CopyPaste
}

// Verifier checks all references of one scanned repository.
type Verifier struct {
	cfg              *config.Config
	repo             *models.RepoInfo
	mode             Mode
	includeUntracked bool
	workers          int
	log              logger.Logger

	locals    []refItem
	externals []refItem

	progress *progress.VerifyProgress
	prober   *prober
}

// New creates a Verifier over an immutable RepoInfo. References are
// partitioned up front so progress totals are known before Run starts.
func New(cfg *config.Config, repo *models.RepoInfo, opts Options) (*Verifier, error) {
	ignoreExternal, err := pathutil.CompileExtendedRegexes(cfg.Exclusions.IgnoreExternalRefsTo)
	if err != nil {
		return nil, fmt.Errorf("exclusions.ignoreExternalRefsTo: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	v := &Verifier{
		cfg:              cfg,
		repo:             repo,
		mode:             opts.Mode,
		includeUntracked: opts.IncludeUntracked,
		workers:          workers,
		log:              log,
	}

	for _, file := range repo.ScannedFiles() {
		rel, _ := pathutil.RelativeTo(repo.Root, file)
		if pathutil.MatchesAny(cfg.Exclusions.IgnoreRefsFrom, rel) {
			continue
		}
		for _, ref := range repo.Files[file].Info.References {
			if ref.Ignored {
				continue
			}
			switch ref.LocationType() {
			case models.LocExternal:
				if !v.mode.checksExternal() {
					continue
				}
				if pathutil.MatchesAnyRegexp(ignoreExternal, ref.Link) {
					continue
				}
				v.externals = append(v.externals, refItem{file: file, ref: ref})
			case models.LocOther:
				// Schemes like mailto: and tel: have nothing to check.
			default:
				if v.mode.checksLocal() {
					v.locals = append(v.locals, refItem{file: file, ref: ref})
				}
			}
		}
	}

	v.progress = progress.NewVerifyProgress(len(v.locals), len(v.externals))
	v.prober = newProber(cfg.Networking, log, v.progress)
	return v, nil
}

// Progress exposes the run's live counters for a progress display.
func (v *Verifier) Progress() *progress.VerifyProgress {
	return v.progress
}

// Run performs the verification. On cancellation it returns the issues
// found so far together with the context's error, so callers can still
// report partial results.
func (v *Verifier) Run(ctx context.Context) (*Result, error) {
	var issues []models.Issue

	for _, it := range v.locals {
		if ctx.Err() != nil {
			break
		}
		verr := v.checkLocal(it.file, it.ref)
		v.progress.LocalDone(verr == nil)
		if verr != nil {
			issues = append(issues, models.Issue{File: it.file, Reference: it.ref, Err: verr})
		}
	}

	if ctx.Err() == nil {
		issues = append(issues, v.runExternal(ctx)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		return issues[i].Reference.Position.Before(issues[j].Reference.Position)
	})

	return &Result{
		Issues:     issues,
		CopyPastes: DetectCopyPaste(v.repo),
	}, ctx.Err()
}

// checkLocal resolves one same-file, relative or absolute reference
// against the repository model.
func (v *Verifier) checkLocal(file string, ref models.Reference) models.VerifyError {
	var target string
	switch ref.LocationType() {
	case models.LocSameFile:
		target = file
	case models.LocAbsolute:
		target = pathutil.Join(v.repo.Root, strings.TrimPrefix(ref.Link, "/"))
	default:
		target = pathutil.Join(filepath.Dir(file), filepath.FromSlash(ref.Link))
	}

	rel, underRoot := pathutil.RelativeTo(v.repo.Root, target)
	if underRoot && pathutil.MatchesAny(v.cfg.Exclusions.IgnoreLocalRefsTo, rel) {
		return nil
	}

	display := rel
	if !underRoot {
		display = ref.Link
	}

	if f, ok := v.repo.File(target); ok {
		if f.Status == models.FileNotAddedToGit {
			return &models.FileNotExistError{Path: display, Untracked: true}
		}
		if ref.Anchor != "" && f.Status == models.FileScanned {
			return v.checkAnchor(f.Info, ref.Anchor)
		}
		// Not scannable files have no anchor index; accept the fragment.
		return nil
	}

	if status, ok := v.repo.Dir(target); ok {
		if status == models.DirUntracked && !v.includeUntracked {
			return &models.FileNotExistError{Path: display, Untracked: true}
		}
		return nil
	}

	if underRoot && pathutil.MatchesAny(v.cfg.Exclusions.VirtualFiles, rel) {
		return nil
	}
	return &models.FileNotExistError{Path: display}
}

// checkAnchor matches a fragment against the anchors of a scanned file.
func (v *Verifier) checkAnchor(info *models.FileInfo, name string) models.VerifyError {
	var matches []models.Anchor
	for _, a := range info.Anchors {
		if a.Name == name {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 1:
		return nil
	case 0:
		return &models.AnchorNotExistError{
			Anchor:      name,
			Suggestions: anchor.Suggestions(name, info.Anchors, v.cfg.Scanners.AnchorSimilarityThreshold),
		}
	default:
		return &models.AmbiguousAnchorError{Anchor: name, Matches: matches}
	}
}

// runExternal probes every distinct external URL once through a bounded
// worker pool and fans the verdicts back out to the referring items.
func (v *Verifier) runExternal(ctx context.Context) []models.Issue {
	if len(v.externals) == 0 {
		return nil
	}

	type urlJob struct {
		url   string
		items []refItem
	}
	byURL := make(map[string]*urlJob)
	var jobs []*urlJob
	for _, it := range v.externals {
		job, ok := byURL[it.ref.Link]
		if !ok {
			job = &urlJob{url: it.ref.Link}
			byURL[it.ref.Link] = job
			jobs = append(jobs, job)
		}
		job.items = append(job.items, it)
	}

	type verdict struct {
		job  *urlJob
		verr models.VerifyError
	}

	semaphore := make(chan struct{}, v.workers)
	resultsCh := make(chan verdict, len(jobs))

	var wg sync.WaitGroup
	launchDone := make(chan struct{})

	go func() {
		defer close(launchDone)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			wg.Add(1)
			go func(job *urlJob) {
				defer wg.Done()
				defer func() { <-semaphore }()
				verr, err := v.prober.Probe(ctx, job.url)
				if err != nil {
					// Cancelled mid-probe; no verdict for this URL.
					return
				}
				resultsCh <- verdict{job: job, verr: verr}
			}(job)
		}
	}()

	go func() {
		<-launchDone
		wg.Wait()
		close(resultsCh)
	}()

	var issues []models.Issue
	for res := range resultsCh {
		for _, it := range res.job.items {
			v.progress.ExternalDone(res.verr == nil)
			if res.verr != nil {
				issues = append(issues, models.Issue{File: it.file, Reference: it.ref, Err: res.verr})
			}
		}
	}

	return issues
}
