package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/seoscribe/internal/metrics"
)

// ExtractHeadings parses r as HTML and returns the trimmed text of every h2
// element in document order.
func ExtractHeadings(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	headings := make([]string, 0, 8)
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		headings = append(headings, strings.TrimSpace(s.Text()))
	})
	return headings, nil
}

// HeadingExtractor fetches competitor pages and returns their h2 headings.
// Every failure is logged and reported as zero headings.
type HeadingExtractor struct {
	fetcher   *Fetcher
	robots    *RobotsTxtAuditor
	userAgent string
	logger    *slog.Logger
}

// NewHeadingExtractor wires a fetcher with an optional robots auditor. When
// robots is nil, robots.txt is not consulted.
func NewHeadingExtractor(fetcher *Fetcher, robots *RobotsTxtAuditor, logger *slog.Logger) *HeadingExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeadingExtractor{
		fetcher:   fetcher,
		robots:    robots,
		userAgent: fetcher.config.UAPool.Pick(),
		logger:    logger,
	}
}

// Headings returns the h2 headings of targetURL, or nil when the page could
// not be fetched or parsed.
func (h *HeadingExtractor) Headings(ctx context.Context, targetURL string) []string {
	if h.robots != nil {
		allowed, err := h.robots.IsAllowed(ctx, targetURL, h.userAgent)
		if err != nil {
			h.logger.Warn("could not check robots.txt", "url", targetURL, "err", err)
			return nil
		}
		if !allowed {
			h.logger.Info("competitor page disallowed by robots.txt", "url", targetURL)
			return nil
		}
	}

	page, err := h.fetcher.Fetch(ctx, targetURL)
	h.record(targetURL, page, err)
	if err != nil {
		h.logger.Warn("could not fetch competitor page", "url", targetURL, "err", err)
		return nil
	}
	if page.Challenged {
		h.logger.Warn("competitor page served a bot challenge", "url", targetURL, "source", page.ChallengeSource)
		return nil
	}
	if !page.OK() {
		h.logger.Warn("competitor page returned non-2xx status", "url", targetURL, "status", page.StatusCode)
		return nil
	}

	headings, err := ExtractHeadings(bytes.NewReader(page.Body))
	if err != nil {
		h.logger.Warn("could not parse competitor page", "url", targetURL, "err", err)
		return nil
	}

	h.logger.Debug("extracted competitor headings", "url", targetURL, "count", len(headings))
	return headings
}

func (h *HeadingExtractor) record(targetURL string, page *Page, err error) {
	domain := ""
	if u, perr := url.Parse(targetURL); perr == nil {
		domain = u.Hostname()
	}
	f := metrics.Fetch{Domain: domain, Failed: err != nil}
	if page != nil {
		f.StatusCode = page.StatusCode
		f.Challenged = page.Challenged
		f.Bytes = len(page.Body)
		f.Duration = page.Duration
	}
	metrics.RecordFetch(f)
}
