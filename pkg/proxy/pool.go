// Package proxy rotates competitor page fetches across a set of egress
// proxies and benches the ones that keep failing or getting challenged.
package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxFailures = 3
	DefaultCooldown    = 5 * time.Minute
)

// ErrNoHealthyProxy is returned by Acquire when every proxy is cooling down.
var ErrNoHealthyProxy = errors.New("proxy: no healthy proxy available")

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures before a proxy is benched.
	MaxFailures int
	// Cooldown is how long a benched proxy stays out of rotation.
	Cooldown time.Duration
}

type entry struct {
	url          *url.URL
	failures     int
	successes    int
	benchedUntil time.Time
}

// Pool hands out proxies round-robin. It is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	next    int
	cfg     Config
	now     func() time.Time
}

// NewPool creates an empty pool, filling zero config values with defaults.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &Pool{cfg: cfg, now: time.Now}
}

// LoadFile adds proxies from path, one URL per line. Blank lines and lines
// starting with '#' are skipped.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: opening %s: %w", path, err)
	}
	defer f.Close()

	var raw []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("proxy: reading %s: %w", path, err)
	}

	return p.Add(raw...)
}

// Add parses and appends proxies. A missing scheme defaults to http.
func (p *Pool) Add(rawURLs ...string) error {
	parsed := make([]*entry, 0, len(rawURLs))
	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy: parsing %q: %w", raw, err)
		}
		if u.Host == "" {
			return fmt.Errorf("proxy: %q has no host", raw)
		}
		parsed = append(parsed, &entry{url: u})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, parsed...)
	return nil
}

// Len returns the number of proxies, benched ones included.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Acquire returns the next proxy not currently benched.
func (p *Pool) Acquire() (*url.URL, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return nil, ErrNoHealthyProxy
	}

	now := p.now()
	for range len(p.entries) {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)

		if !e.benchedUntil.IsZero() && now.After(e.benchedUntil) {
			e.benchedUntil = time.Time{}
			e.failures = 0
		}
		if e.benchedUntil.IsZero() {
			return e.url, nil
		}
	}
	return nil, ErrNoHealthyProxy
}

// Report records the outcome of a fetch made through u. Unknown proxies are
// ignored.
func (p *Pool) Report(u *url.URL, ok bool) {
	if u == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(u)
	if e == nil {
		return
	}

	if ok {
		e.successes++
		if e.failures > 0 {
			e.failures--
		}
		return
	}

	e.failures++
	if e.failures >= p.cfg.MaxFailures {
		e.benchedUntil = p.now().Add(p.cfg.Cooldown)
	}
}

// Stats returns success and failure counts for u.
func (p *Pool) Stats(u *url.URL) (successes, failures int, benched bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(u); e != nil {
		return e.successes, e.failures, !e.benchedUntil.IsZero()
	}
	return 0, 0, false
}

// find must be called with p.mu held.
func (p *Pool) find(u *url.URL) *entry {
	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			return e
		}
	}
	return nil
}

type ctxKey struct{}

// WithProxy returns a context that routes requests through u when the
// transport uses FromRequest.
func WithProxy(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromRequest is an http.Transport Proxy func that reads the proxy chosen by
// WithProxy. Requests without one go direct.
func FromRequest(req *http.Request) (*url.URL, error) {
	u, _ := req.Context().Value(ctxKey{}).(*url.URL)
	return u, nil
}
