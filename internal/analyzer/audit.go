// Package analyzer inspects generated drafts against the research that
// produced them.
package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/seoscribe/internal/prompt"
	"github.com/FranksOps/seoscribe/internal/research"
)

// Audit summarizes how a draft uses its keyword and research signals.
type Audit struct {
	Title                 string      `json:"title,omitempty"`
	H2Count               int         `json:"h2_count"`
	Words                 int         `json:"words"`
	KeywordMentions       int         `json:"keyword_mentions"`
	AffiliatePlaceholders int         `json:"affiliate_placeholders"`
	QuestionsAnswered     int         `json:"questions_answered"`
	RelatedTerms          []TermMatch `json:"related_terms,omitempty"`
}

// AuditDraft measures draft. HTML markup is stripped before counting words
// and terms; plain text drafts are measured as-is.
func AuditDraft(draft, keyword string, payload research.Payload) Audit {
	a := Audit{
		AffiliatePlaceholders: strings.Count(draft, prompt.AffiliatePlaceholder),
	}
	if strings.TrimSpace(draft) == "" {
		return a
	}

	text := draft
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(draft)); err == nil {
		a.Title = strings.TrimSpace(doc.Find("h1").First().Text())
		if a.Title == "" {
			a.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		a.H2Count = doc.Find("h2").Length()
		text = doc.Text()
	}

	a.Words = len(strings.Fields(text))
	if m := FindTermMatches(text, []string{keyword}); len(m) == 1 {
		a.KeywordMentions = m[0].Count
	}

	lower := strings.ToLower(text)
	for _, q := range payload.PeopleAlsoAsk {
		if q = strings.ToLower(strings.TrimSpace(q)); q != "" && strings.Contains(lower, q) {
			a.QuestionsAnswered++
		}
	}

	a.RelatedTerms = FindTermMatches(text, payload.RelatedSearches)
	return a
}
