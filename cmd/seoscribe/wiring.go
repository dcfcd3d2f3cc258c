package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/seoscribe/internal/config"
	"github.com/FranksOps/seoscribe/internal/fingerprint"
	"github.com/FranksOps/seoscribe/internal/llm"
	"github.com/FranksOps/seoscribe/internal/pipeline"
	"github.com/FranksOps/seoscribe/internal/research"
	"github.com/FranksOps/seoscribe/internal/scraper"
	"github.com/FranksOps/seoscribe/internal/serp"
	"github.com/FranksOps/seoscribe/internal/storage"
	"github.com/FranksOps/seoscribe/internal/storage/backends"
	"github.com/FranksOps/seoscribe/pkg/proxy"
	"github.com/FranksOps/seoscribe/pkg/ratelimit"
	"github.com/FranksOps/seoscribe/pkg/useragent"
)

// generator bundles a pipeline with the resources it holds open.
type generator struct {
	*pipeline.Pipeline
	runs    storage.Backend
	limiter *ratelimit.Limiter
}

func (g *generator) Close() error {
	g.limiter.Stop()
	if g.runs != nil {
		return g.runs.Close()
	}
	return nil
}

func newGenerator(ctx context.Context, cfg config.Config, logger *slog.Logger) (*generator, error) {
	if err := cfg.ValidateGeneration(); err != nil {
		return nil, err
	}

	profile, err := fingerprint.ParseProfile(cfg.Fetch.TLSProfile)
	if err != nil {
		return nil, err
	}

	proxies, err := newProxyPool(cfg.Fetch)
	if err != nil {
		return nil, err
	}
	if n := proxies.Len(); n > 0 {
		logger.Info("routing competitor fetches through proxies", "count", n)
	}

	limiter := ratelimit.New(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Jitter)
	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Fetch.Timeout,
		MaxRedirects: cfg.Fetch.MaxRedirects,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UAPool:       useragent.NewPool(cfg.Fetch.UserAgents, useragent.Random),
		Fingerprint:  profile,
		Limiter:      limiter,
		Proxies:      proxies,
	})
	if err != nil {
		limiter.Stop()
		return nil, fmt.Errorf("creating fetcher: %w", err)
	}

	var robots *scraper.RobotsTxtAuditor
	if cfg.Fetch.RespectRobots {
		robots = scraper.NewRobotsTxtAuditor(fetcher, logger)
	}

	provider, err := serp.NewSerpAPI(serp.SerpAPIConfig{
		APIKey:  cfg.SerpAPI.APIKey,
		BaseURL: cfg.SerpAPI.BaseURL,
		Timeout: cfg.SerpAPI.Timeout,
	})
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	aggregator := research.NewAggregator(provider, scraper.NewHeadingExtractor(fetcher, robots, logger), research.Config{
		Country:     cfg.SerpAPI.Country,
		Language:    cfg.SerpAPI.Language,
		Engine:      cfg.SerpAPI.Engine,
		Competitors: cfg.Fetch.Competitors,
		Concurrency: cfg.Fetch.Concurrency,
	}, logger)

	model, err := llm.NewOpenAI(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	runs, err := backends.Open(ctx, cfg.Storage.Backend, cfg.Storage.DSN)
	if err != nil {
		limiter.Stop()
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	return &generator{
		Pipeline: pipeline.New(aggregator, model, runs, logger),
		runs:     runs,
		limiter:  limiter,
	}, nil
}

func newProxyPool(cfg config.FetchConfig) (*proxy.Pool, error) {
	pool := proxy.NewPool(proxy.Config{
		MaxFailures: cfg.ProxyMaxFailures,
		Cooldown:    cfg.ProxyCooldown,
	})
	if err := pool.Add(cfg.Proxies...); err != nil {
		return nil, err
	}
	if cfg.ProxyFile != "" {
		if err := pool.LoadFile(cfg.ProxyFile); err != nil {
			return nil, err
		}
	}
	return pool, nil
}
