package research

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/FranksOps/seoscribe/internal/scraper"
	"github.com/FranksOps/seoscribe/internal/serp"
)

type stubProvider struct {
	results *serp.Results
	err     error
	got     serp.Query
}

func (s *stubProvider) Search(ctx context.Context, q serp.Query) (*serp.Results, error) {
	s.got = q
	return s.results, s.err
}

type stubHeadings struct {
	mu    sync.Mutex
	pages map[string][]string
	asked []string
}

func (s *stubHeadings) Headings(ctx context.Context, url string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, url)
	return s.pages[url]
}

func TestAggregator_Research(t *testing.T) {
	provider := &stubProvider{results: &serp.Results{
		RelatedQuestions: []serp.RelatedQuestion{{Question: "Q1"}, {Question: "Q2"}, {Question: "Q1"}},
		RelatedSearches:  []serp.RelatedSearch{{Query: "r1"}, {Query: "r2"}},
		OrganicResults: []serp.OrganicResult{
			{Link: "https://one.example"},
			{Link: "https://two.example"},
			{Link: "https://three.example"},
			{Link: "https://four.example"},
		},
	}}
	headings := &stubHeadings{pages: map[string][]string{
		"https://one.example":   {"A", "B"},
		"https://two.example":   {"B", "C"},
		"https://three.example": {"D"},
		"https://four.example":  {"never"},
	}}

	agg := NewAggregator(provider, headings, Config{}, nil)
	payload, err := agg.Research(context.Background(), "  Mixed Case keyword ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.got.Keyword != "  Mixed Case keyword " {
		t.Errorf("keyword must be passed verbatim, got %q", provider.got.Keyword)
	}
	if !reflect.DeepEqual(payload.PeopleAlsoAsk, []string{"Q1", "Q2", "Q1"}) {
		t.Errorf("PeopleAlsoAsk = %q", payload.PeopleAlsoAsk)
	}
	if !reflect.DeepEqual(payload.RelatedSearches, []string{"r1", "r2"}) {
		t.Errorf("RelatedSearches = %q", payload.RelatedSearches)
	}
	if !reflect.DeepEqual(payload.CompetitorHeadings, []string{"A", "B", "C", "D"}) {
		t.Errorf("CompetitorHeadings = %q", payload.CompetitorHeadings)
	}
	if len(headings.asked) != 3 {
		t.Errorf("expected only the top 3 competitors to be fetched, got %v", headings.asked)
	}
}

func TestAggregator_MissingFieldsDefaultEmpty(t *testing.T) {
	provider := &stubProvider{results: &serp.Results{
		RelatedQuestions: []serp.RelatedQuestion{{Question: "Only question"}},
	}}
	agg := NewAggregator(provider, &stubHeadings{}, Config{}, nil)

	payload, err := agg.Research(context.Background(), "kw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RelatedSearches == nil || len(payload.RelatedSearches) != 0 {
		t.Errorf("expected empty related searches, got %#v", payload.RelatedSearches)
	}
	if payload.CompetitorHeadings == nil || len(payload.CompetitorHeadings) != 0 {
		t.Errorf("expected empty competitor headings, got %#v", payload.CompetitorHeadings)
	}
}

func TestAggregator_NilResults(t *testing.T) {
	agg := NewAggregator(&stubProvider{}, &stubHeadings{}, Config{}, nil)
	payload, err := agg.Research(context.Background(), "kw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.PeopleAlsoAsk)+len(payload.RelatedSearches)+len(payload.CompetitorHeadings) != 0 {
		t.Errorf("expected empty payload, got %+v", payload)
	}
}

func TestAggregator_ProviderFailure(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("%w: HTTP 401", serp.ErrProvider)}
	agg := NewAggregator(provider, &stubHeadings{}, Config{}, nil)

	_, err := agg.Research(context.Background(), "kw")
	if !errors.Is(err, serp.ErrProvider) {
		t.Fatalf("expected wrapped ErrProvider, got %v", err)
	}
}

func TestAggregator_DuplicateHeadingsOnOnePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h2>A</h2><h2>B</h2><h2>A</h2>`)
	}))
	defer ts.Close()

	fetcher, _ := scraper.NewFetcher(scraper.FetchConfig{})
	provider := &stubProvider{results: &serp.Results{
		OrganicResults: []serp.OrganicResult{{Link: ts.URL}},
	}}
	agg := NewAggregator(provider, scraper.NewHeadingExtractor(fetcher, nil, nil), Config{}, nil)

	payload, err := agg.Research(context.Background(), "kw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := append([]string(nil), payload.CompetitorHeadings...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected {A, B}, got %q", got)
	}
}

func TestAggregator_OneCompetitorTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fast1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h2>Fast one</h2><h2>Shared</h2>`)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `<h2>Slow</h2>`)
	})
	mux.HandleFunc("/fast2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<h2>Fast two</h2><h2>Shared</h2>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher, _ := scraper.NewFetcher(scraper.FetchConfig{Timeout: 100 * time.Millisecond})
	provider := &stubProvider{results: &serp.Results{
		OrganicResults: []serp.OrganicResult{
			{Link: ts.URL + "/fast1"},
			{Link: ts.URL + "/slow"},
			{Link: ts.URL + "/fast2"},
		},
	}}
	agg := NewAggregator(provider, scraper.NewHeadingExtractor(fetcher, nil, nil), Config{}, nil)

	payload, err := agg.Research(context.Background(), "kw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Fast one", "Shared", "Fast two"}
	if !reflect.DeepEqual(payload.CompetitorHeadings, want) {
		t.Errorf("CompetitorHeadings = %q, want %q", payload.CompetitorHeadings, want)
	}
}

func TestAggregator_SkipsEmptyLinks(t *testing.T) {
	headings := &stubHeadings{pages: map[string][]string{"https://ok.example": {"X"}}}
	provider := &stubProvider{results: &serp.Results{
		OrganicResults: []serp.OrganicResult{{Link: ""}, {Link: "https://ok.example"}},
	}}
	agg := NewAggregator(provider, headings, Config{Competitors: 3}, nil)

	payload, _ := agg.Research(context.Background(), "kw")
	if len(headings.asked) != 1 {
		t.Errorf("expected one fetch, got %v", headings.asked)
	}
	if !reflect.DeepEqual(payload.CompetitorHeadings, []string{"X"}) {
		t.Errorf("CompetitorHeadings = %q", payload.CompetitorHeadings)
	}
}
