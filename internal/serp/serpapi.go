package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/seoscribe/pkg/httpclient"
)

// DefaultSerpAPIURL is SerpApi's JSON search endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPIConfig configures the SerpApi client.
type SerpAPIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SerpAPI queries serpapi.com.
type SerpAPI struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
}

var _ Provider = (*SerpAPI)(nil)

// NewSerpAPI creates a SerpApi provider.
func NewSerpAPI(cfg SerpAPIConfig) (*SerpAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serpapi: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSerpAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout: cfg.Timeout,
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	return &SerpAPI{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: client}, nil
}

// Search runs q against SerpApi. An in-band error (such as "no results") on a
// 2xx response is returned in Results.Error rather than as a failure.
func (s *SerpAPI) Search(ctx context.Context, q Query) (*Results, error) {
	params := url.Values{
		"q":       {q.Keyword},
		"api_key": {s.apiKey},
		"engine":  {orDefault(q.Engine, "google")},
		"gl":      {orDefault(q.Country, "us")},
		"hl":      {orDefault(q.Language, "en")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrProvider, err)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body Results
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		if body.Error != "" {
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProvider, resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrProvider, resp.StatusCode)
	}

	var results Results
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
	}
	return &results, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
