package models

import (
	"fmt"
	"strings"
)

// VerifyError is a reference verification failure. The concrete type tells
// reporting (and tests) exactly what went wrong.
type VerifyError interface {
	error
	verifyError()
}

// FileNotExistError reports a local reference whose target is missing, or,
// when Untracked is set, present on disk but invisible to the scan because
// git does not track it.
type FileNotExistError struct {
	// Path is the root-relative target path.
	Path      string
	Untracked bool
}

func (e *FileNotExistError) Error() string {
	if e.Untracked {
		return fmt.Sprintf("target is not tracked by git: %s\nrun \"git add\" or pass --include-untracked to check it", e.Path)
	}
	return fmt.Sprintf("file does not exist: %s", e.Path)
}

func (e *FileNotExistError) verifyError() {}

// AnchorNotExistError reports a fragment that matches nothing in the target
// document. Suggestions holds close anchor names, best first.
type AnchorNotExistError struct {
	Anchor      string
	Suggestions []string
}

func (e *AnchorNotExistError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("anchor %q is not present", e.Anchor)
	}
	return fmt.Sprintf("anchor %q is not present, did you mean:\n  - %s",
		e.Anchor, strings.Join(e.Suggestions, "\n  - "))
}

func (e *AnchorNotExistError) verifyError() {}

// AmbiguousAnchorError reports a fragment that matches several anchors in
// the target document, so the link's destination is not well defined.
type AmbiguousAnchorError struct {
	Anchor  string
	Matches []Anchor
}

func (e *AmbiguousAnchorError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous anchor reference %q, it could refer to any of:", e.Anchor)
	for _, a := range e.Matches {
		fmt.Fprintf(&b, "\n  - %s", a.Describe())
	}
	return b.String()
}

func (e *AmbiguousAnchorError) verifyError() {}

// ExternalUnavailableError reports an external target that answered with a
// failing HTTP status.
type ExternalUnavailableError struct {
	Code   int
	Status string
}

func (e *ExternalUnavailableError) Error() string {
	return fmt.Sprintf("resource unavailable (%s)", e.Status)
}

func (e *ExternalUnavailableError) verifyError() {}

// ExternalTimeoutError reports an external target that did not answer
// within the configured per-attempt timeout.
type ExternalTimeoutError struct{}

func (e *ExternalTimeoutError) Error() string { return "response timeout" }

func (e *ExternalTimeoutError) verifyError() {}

// ExternalNetworkError reports a connection-level failure: DNS, TLS,
// refused connections and the like.
type ExternalNetworkError struct {
	Reason string
}

func (e *ExternalNetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Reason)
}

func (e *ExternalNetworkError) verifyError() {}

// ExternalSomeError covers external failures with no more precise bucket,
// such as links that do not parse as URLs.
type ExternalSomeError struct {
	Text string
}

func (e *ExternalSomeError) Error() string { return e.Text }

func (e *ExternalSomeError) verifyError() {}

// RedirectChainError reports an external target that kept redirecting past
// the hop limit. Chain holds the URLs visited, in order.
type RedirectChainError struct {
	Chain []string
}

func (e *RedirectChainError) Error() string {
	if len(e.Chain) == 0 {
		return "too many redirects"
	}
	return "too many redirects:\n  -> " + strings.Join(e.Chain, "\n  -> ")
}

func (e *RedirectChainError) verifyError() {}

// Issue is one verification failure tied to the reference that caused it.
type Issue struct {
	// File is the canonical path of the referring file.
	File      string
	Reference Reference
	Err       VerifyError
}

// CopyPaste flags a reference whose text looks copied from another
// reference to the same target.
type CopyPaste struct {
	File     string
	Original Reference
	Copy     Reference
}
