package serp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSerpAPI_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"q":       "best coffee maker for home",
			"api_key": "secret",
			"engine":  "google",
			"gl":      "us",
			"hl":      "en",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}
		fmt.Fprint(w, `{
			"search_metadata": {"status": "Success"},
			"related_questions": [{"question": "Which coffee maker is best?", "snippet": "..."}],
			"related_searches": [{"query": "drip coffee maker"}],
			"organic_results": [{"position": 1, "title": "Top 10", "link": "https://a.example/top"}]
		}`)
	}))
	defer ts.Close()

	p, err := NewSerpAPI(SerpAPIConfig{APIKey: "secret", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := p.Search(context.Background(), Query{Keyword: "best coffee maker for home"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.RelatedQuestions) != 1 || res.RelatedQuestions[0].Question != "Which coffee maker is best?" {
		t.Errorf("unexpected related questions: %+v", res.RelatedQuestions)
	}
	if len(res.RelatedSearches) != 1 || res.RelatedSearches[0].Query != "drip coffee maker" {
		t.Errorf("unexpected related searches: %+v", res.RelatedSearches)
	}
	if len(res.OrganicResults) != 1 || res.OrganicResults[0].Link != "https://a.example/top" {
		t.Errorf("unexpected organic results: %+v", res.OrganicResults)
	}
}

func TestSerpAPI_InBandErrorIsNotFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Google hasn't returned any results for this query."}`)
	}))
	defer ts.Close()

	p, _ := NewSerpAPI(SerpAPIConfig{APIKey: "k", BaseURL: ts.URL})
	res, err := p.Search(context.Background(), Query{Keyword: "zzqx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Error == "" {
		t.Errorf("expected in-band error to be surfaced")
	}
	if res.RelatedSearches != nil || res.OrganicResults != nil {
		t.Errorf("expected absent fields to stay nil, got %+v", res)
	}
}

func TestSerpAPI_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "Invalid API key."}`)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>not json</html>`)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(tc.handler)
			defer ts.Close()

			p, _ := NewSerpAPI(SerpAPIConfig{APIKey: "k", BaseURL: ts.URL})
			_, err := p.Search(context.Background(), Query{Keyword: "x"})
			if !errors.Is(err, ErrProvider) {
				t.Fatalf("expected ErrProvider, got %v", err)
			}
		})
	}
}

func TestNewSerpAPI_RequiresKey(t *testing.T) {
	if _, err := NewSerpAPI(SerpAPIConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
