// Package research aggregates search-engine signals for a keyword: people
// also ask questions, related searches, and the h2 headings of the top
// ranking competitor pages.
package research

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/seoscribe/internal/serp"
)

// DefaultCompetitors is how many organic results are mined for headings.
const DefaultCompetitors = 3

// Payload is the research handed to the prompt builder.
type Payload struct {
	PeopleAlsoAsk   []string `json:"people_also_ask"`
	RelatedSearches []string `json:"related_searches"`
	// CompetitorHeadings is deduplicated. Order follows first appearance but
	// is not part of the contract.
	CompetitorHeadings []string `json:"competitor_headings"`
}

// HeadingSource returns the h2 headings of a page, or nil on any failure.
type HeadingSource interface {
	Headings(ctx context.Context, url string) []string
}

// Config tunes the aggregator.
type Config struct {
	Country     string
	Language    string
	Engine      string
	Competitors int
	// Concurrency bounds simultaneous competitor fetches.
	Concurrency int
}

// Aggregator runs one research pass per keyword.
type Aggregator struct {
	provider serp.Provider
	headings HeadingSource
	cfg      Config
	logger   *slog.Logger
}

// NewAggregator wires a search provider and a heading source.
func NewAggregator(provider serp.Provider, headings HeadingSource, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.Competitors <= 0 {
		cfg.Competitors = DefaultCompetitors
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = cfg.Competitors
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{provider: provider, headings: headings, cfg: cfg, logger: logger}
}

// Research queries the provider for keyword and mines the top competitors.
// Only a provider failure is returned as an error; missing response fields
// and failed competitor fetches degrade to empty data.
func (a *Aggregator) Research(ctx context.Context, keyword string) (Payload, error) {
	a.logger.Info("performing seo research", "keyword", keyword)

	res, err := a.provider.Search(ctx, serp.Query{
		Keyword:  keyword,
		Engine:   a.cfg.Engine,
		Country:  a.cfg.Country,
		Language: a.cfg.Language,
	})
	if err != nil {
		return Payload{}, fmt.Errorf("searching %q: %w", keyword, err)
	}
	if res == nil {
		res = &serp.Results{}
	}
	if res.Error != "" {
		a.logger.Warn("search provider returned no usable results", "keyword", keyword, "reason", res.Error)
	}

	payload := Payload{
		PeopleAlsoAsk:   make([]string, 0, len(res.RelatedQuestions)),
		RelatedSearches: make([]string, 0, len(res.RelatedSearches)),
	}
	for _, q := range res.RelatedQuestions {
		payload.PeopleAlsoAsk = append(payload.PeopleAlsoAsk, q.Question)
	}
	for _, s := range res.RelatedSearches {
		payload.RelatedSearches = append(payload.RelatedSearches, s.Query)
	}

	organic := res.OrganicResults
	if len(organic) > a.cfg.Competitors {
		organic = organic[:a.cfg.Competitors]
	}
	a.logger.Info("analyzing competitors", "keyword", keyword, "count", len(organic))

	payload.CompetitorHeadings = a.competitorHeadings(ctx, organic)
	return payload, nil
}

// competitorHeadings fetches every competitor concurrently and merges the
// results in rank order, dropping duplicates.
func (a *Aggregator) competitorHeadings(ctx context.Context, organic []serp.OrganicResult) []string {
	perPage := make([][]string, len(organic))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, r := range organic {
		if r.Link == "" {
			continue
		}
		g.Go(func() error {
			perPage[i] = a.headings.Headings(ctx, r.Link)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	unique := make([]string, 0)
	for _, headings := range perPage {
		for _, h := range headings {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			unique = append(unique, h)
		}
	}
	return unique
}
