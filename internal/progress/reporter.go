package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ciEnvVars mark the environments where a rewriting progress bar would only
// clutter the build log.
var ciEnvVars = []string{"CI", "TF_BUILD", "GITHUB_ACTIONS", "BUILD_NUMBER", "TEAMCITY_VERSION"}

// IsCI reports whether the process runs under a known CI system.
func IsCI() bool {
	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// InteractiveOutput reports whether f is a terminal a progress bar can be
// drawn on.
func InteractiveOutput(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reporter periodically renders a VerifyProgress as a single terminal line.
// A disabled Reporter is a no-op; the counters underneath keep advancing so
// the final summary stays accurate either way.
type Reporter struct {
	vp   *VerifyProgress
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
}

// NewReporter builds a reporter over vp writing to out. When enabled is
// false the reporter renders nothing.
func NewReporter(vp *VerifyProgress, out io.Writer, enabled bool) *Reporter {
	r := &Reporter{vp: vp}
	if !enabled {
		return r
	}

	local, external, _ := vp.Snapshot()
	r.bar = progressbar.NewOptions(local.Total+external.Total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Checking references[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
	return r
}

// Start begins rendering until Stop is called.
func (r *Reporter) Start() {
	if r.bar == nil {
		return
	}
	r.done = make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.render()
			}
		}
	}()
}

// Stop ends rendering after drawing the final state.
func (r *Reporter) Stop() {
	if r.bar == nil {
		return
	}
	close(r.done)
	r.wg.Wait()
	r.render()
	_ = r.bar.Finish()
}

func (r *Reporter) render() {
	local, external, _ := r.vp.Snapshot()
	_ = r.bar.Set(local.Done + external.Done)
}
