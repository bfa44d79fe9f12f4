package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andreasabel/xrefcheck/internal/config"
	"github.com/andreasabel/xrefcheck/internal/logger"
	"github.com/andreasabel/xrefcheck/internal/models"
	"github.com/andreasabel/xrefcheck/internal/progress"
)

// maxRedirectHops bounds how many redirects a probe follows before giving
// up on the chain.
const maxRedirectHops = 10

const userAgent = "xrefcheck"

var errRedirectChain = errors.New("redirect chain too long")

// prober drives external URL verification: one HEAD (falling back to GET)
// per attempt, per-domain rate-limit bookkeeping and a bounded retry budget
// for 429 answers.
type prober struct {
	cfg       config.Networking
	log       logger.Logger
	progress  *progress.VerifyProgress
	transport http.RoundTripper
	retryWake *retryMap
}

func newProber(cfg config.Networking, log logger.Logger, vp *progress.VerifyProgress) *prober {
	return &prober{
		cfg:       cfg,
		log:       log,
		progress:  vp,
		transport: http.DefaultTransport,
		retryWake: newRetryMap(),
	}
}

// Probe checks one URL. The VerifyError is nil when the resource looks
// healthy; the error return is non-nil only when the surrounding run was
// cancelled.
func (p *prober) Probe(ctx context.Context, rawURL string) (models.VerifyError, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &models.ExternalSomeError{Text: fmt.Sprintf("invalid URL: %v", err)}, nil
	}
	domain := u.Hostname()

	retried := false
	for attempt := 0; ; attempt++ {
		if delay := p.retryWake.Delay(domain, time.Now()); delay > 0 {
			p.log.LogDebug(fmt.Sprintf("Delaying probe of %s by %s, %s is rate limited",
				rawURL, delay.Round(time.Millisecond), domain))
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		verr, retryAfter, err := p.attempt(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if retryAfter < 0 {
			if retried {
				if verr == nil {
					p.progress.RetryResolved()
				} else {
					p.progress.RetryExhausted()
				}
			}
			return verr, nil
		}

		p.retryWake.Extend(domain, time.Now().Add(retryAfter))
		if attempt >= p.cfg.MaxRetries {
			p.progress.RetryExhausted()
			return &models.ExternalUnavailableError{
				Code:   http.StatusTooManyRequests,
				Status: "429 Too Many Requests",
			}, nil
		}
		retried = true
		p.progress.RetryEvent()
		p.log.LogDebug(fmt.Sprintf("Rate limited by %s, retrying %s in %s",
			domain, rawURL, retryAfter.Round(time.Millisecond)))
	}
}

// attempt issues one probe bounded by the per-attempt timeout. The second
// result is >= 0 when the server answered 429: how long to wait before the
// next try.
func (p *prober) attempt(ctx context.Context, rawURL string) (models.VerifyError, time.Duration, error) {
	actx, cancel := context.WithTimeout(ctx, p.cfg.ExternalRefCheckTimeout.Std())
	defer cancel()

	var chain []string
	client := &http.Client{
		Transport: p.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirectHops {
				chain = chain[:0]
				for _, r := range via {
					chain = append(chain, r.URL.String())
				}
				chain = append(chain, req.URL.String())
				return errRedirectChain
			}
			return nil
		},
	}

	resp, err := p.do(actx, client, http.MethodHead, rawURL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		resp, err = p.do(actx, client, http.MethodGet, rawURL)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, -1, ctx.Err()
		}
		return classifyProbeError(err, chain), -1, nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retryAfterDelay(resp.Header.Get("Retry-After"), p.cfg.DefaultRetryAfter.Std()), nil
	case resp.StatusCode < 400:
		return nil, -1, nil
	case (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && p.cfg.IgnoreAuthFailures:
		// The resource exists, it just is not public.
		return nil, -1, nil
	default:
		return &models.ExternalUnavailableError{Code: resp.StatusCode, Status: resp.Status}, -1, nil
	}
}

func (p *prober) do(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	// The status line is all we need; the body is never consumed.
	resp.Body.Close()
	return resp, nil
}

// classifyProbeError sorts a transport failure into the closest verify
// error.
func classifyProbeError(err error, chain []string) models.VerifyError {
	if errors.Is(err, errRedirectChain) {
		return &models.RedirectChainError{Chain: append([]string(nil), chain...)}
	}
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &models.ExternalTimeoutError{}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return &models.ExternalNetworkError{Reason: err.Error()}
}

// retryAfterDelay parses a Retry-After header, either delta-seconds or an
// HTTP date, falling back to the configured default.
func retryAfterDelay(header string, fallback time.Duration) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return fallback
		}
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

// retryMap is the run-wide rate-limit table keyed by domain. Concurrent
// writers keep the later wake time, so parallel 429 answers only stretch
// the quiet period.
type retryMap struct {
	mu   sync.Mutex
	wake map[string]time.Time
}

func newRetryMap() *retryMap {
	return &retryMap{wake: make(map[string]time.Time)}
}

// Delay reports how long a probe of domain must still wait.
func (m *retryMap) Delay(domain string, now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.wake[domain]; ok && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// Extend schedules the next allowed probe of domain, keeping the later of
// the current and proposed times.
func (m *retryMap) Extend(domain string, wakeAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.wake[domain]; !ok || wakeAt.After(cur) {
		m.wake[domain] = wakeAt
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
