// Package serp talks to search-results providers and returns the structured
// signals used for keyword research.
package serp

import (
	"context"
	"errors"
)

// ErrProvider marks failures of the search-results provider itself
// (transport, non-2xx status, undecodable body).
var ErrProvider = errors.New("serp provider failure")

// Query is one search request. Empty Engine, Country and Language fall back
// to google, us and en.
type Query struct {
	Keyword  string
	Engine   string
	Country  string
	Language string
}

// RelatedQuestion is one "people also ask" entry.
type RelatedQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link,omitempty"`
}

// RelatedSearch is one related query suggested by the engine.
type RelatedSearch struct {
	Query string `json:"query"`
	Link  string `json:"link,omitempty"`
}

// OrganicResult is one ranked page.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title,omitempty"`
	Link     string `json:"link"`
}

// Results holds the fields of a provider response used for research. Any of
// them may be absent from the response, in which case the slice is nil.
type Results struct {
	RelatedQuestions []RelatedQuestion `json:"related_questions"`
	RelatedSearches  []RelatedSearch   `json:"related_searches"`
	OrganicResults   []OrganicResult   `json:"organic_results"`
	// Error is the provider's own in-band message, e.g. for a query without results.
	Error string `json:"error,omitempty"`
}

// Provider abstracts a search-results API.
type Provider interface {
	Search(ctx context.Context, q Query) (*Results, error)
}
