// Package bypass recognizes bot-protection interstitials so that a challenge
// page is never mistaken for a competitor article.
package bypass

import (
	"bytes"
	"net/http"
	"slices"
	"strings"
)

// Response is the subset of a fetched page the detectors inspect.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Signature describes how one protection vendor announces a challenge.
// A signature matches when the status is listed (or Statuses is empty) and
// at least one of the server, header or body markers is present.
type Signature struct {
	Source         string
	Statuses       []int
	ServerContains []string
	Headers        []string
	BodyMarkers    []string
}

// DefaultSignatures returns the built-in vendor signatures.
func DefaultSignatures() []Signature {
	return []Signature{
		{
			Source:         "Cloudflare",
			Statuses:       []int{http.StatusForbidden, http.StatusServiceUnavailable},
			ServerContains: []string{"cloudflare"},
			BodyMarkers:    []string{"cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare", "/cdn-cgi/challenge-platform/"},
		},
		{
			// Managed challenges can be served with a 200. The challenge-platform
			// script alone is not enough: Cloudflare injects it into normal pages.
			Source:      "Cloudflare",
			BodyMarkers: []string{"<title>Just a moment...</title>"},
		},
		{
			Source:         "Akamai",
			Statuses:       []int{http.StatusForbidden},
			ServerContains: []string{"akamai"},
			BodyMarkers:    []string{"Reference #"},
		},
		{
			Source:         "DataDome",
			Statuses:       []int{http.StatusForbidden},
			ServerContains: []string{"datadome"},
			Headers:        []string{"X-DataDome", "X-DataDome-Response"},
			BodyMarkers:    []string{"geo.captcha-delivery.com"},
		},
		{
			Source:      "PerimeterX",
			Statuses:    []int{http.StatusForbidden},
			Headers:     []string{"X-Px-Captcha"},
			BodyMarkers: []string{"client.perimeterx.net", "px-captcha", "_pxBlock"},
		},
	}
}

// Analyze returns the first matching signature's source, if any.
func Analyze(res Response, signatures []Signature) (bool, string) {
	for _, sig := range signatures {
		if sig.matches(res) {
			return true, sig.Source
		}
	}
	return false, ""
}

func (s Signature) matches(res Response) bool {
	if len(s.Statuses) > 0 && !slices.Contains(s.Statuses, res.StatusCode) {
		return false
	}

	server := strings.ToLower(res.Headers.Get("Server"))
	for _, marker := range s.ServerContains {
		if server != "" && strings.Contains(server, marker) {
			return true
		}
	}
	for _, h := range s.Headers {
		if res.Headers.Get(h) != "" {
			return true
		}
	}
	for _, marker := range s.BodyMarkers {
		if bytes.Contains(res.Body, []byte(marker)) {
			return true
		}
	}
	return false
}
