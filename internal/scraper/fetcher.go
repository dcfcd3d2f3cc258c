// Package scraper fetches competitor pages and pulls their second-level
// headings for keyword research.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/seoscribe/internal/bypass"
	"github.com/FranksOps/seoscribe/internal/fingerprint"
	"github.com/FranksOps/seoscribe/pkg/httpclient"
	"github.com/FranksOps/seoscribe/pkg/proxy"
	"github.com/FranksOps/seoscribe/pkg/ratelimit"
	"github.com/FranksOps/seoscribe/pkg/useragent"
)

const (
	// DefaultTimeout bounds a single competitor page fetch.
	DefaultTimeout = 10 * time.Second

	DefaultMaxBodyBytes = 5 << 20
)

// FetchConfig configures the competitor page fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxBodyBytes truncates oversized pages; headings past the cut are lost.
	MaxBodyBytes int64
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
	// Proxies, when non-empty, routes every fetch through the next healthy
	// proxy. Proxied https fetches use crypto/tls regardless of Fingerprint.
	Proxies *proxy.Pool
}

// Page is the outcome of one GET.
type Page struct {
	URL             string
	StatusCode      int
	Headers         http.Header
	Body            []byte
	Duration        time.Duration
	Challenged      bool
	ChallengeSource string
	// Via is the proxy used, if any.
	Via string
}

// OK reports whether the page came back with a 2xx status and no
// bot-protection challenge.
func (p *Page) OK() bool {
	return p != nil && p.StatusCode >= 200 && p.StatusCode < 300 && !p.Challenged
}

// Fetcher performs single URL fetches. It holds one client so connections are
// pooled across the competitors of a research run.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a Fetcher, filling defaults for unset fields.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sequential)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("scraper: transport: %w", err)
	}
	if cfg.Proxies.Len() > 0 {
		transport.Proxy = proxy.FromRequest
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// Fetch issues a GET for targetURL. A non-nil error means no response was
// obtained; a non-2xx response is returned as a Page without error so the
// caller can decide how to treat it.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	page := &Page{URL: targetURL}

	if err := f.config.Limiter.Wait(ctx); err != nil {
		return page, fmt.Errorf("rate limiter: %w", err)
	}

	var via *url.URL
	if f.config.Proxies.Len() > 0 {
		u, err := f.config.Proxies.Acquire()
		if err != nil {
			return page, err
		}
		via = u
		page.Via = u.Redacted()
		ctx = proxy.WithProxy(ctx, u)
	}

	start := time.Now()
	defer func() { page.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return page, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UAPool.Pick())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			f.config.Proxies.Report(via, false)
		}
		return page, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	page.Body = body
	if err != nil {
		return page, fmt.Errorf("reading body: %w", err)
	}

	page.Challenged, page.ChallengeSource = bypass.Analyze(bypass.Response{
		StatusCode: page.StatusCode,
		Headers:    page.Headers,
		Body:       page.Body,
	}, bypass.DefaultSignatures())
	f.config.Proxies.Report(via, !page.Challenged)

	return page, nil
}
