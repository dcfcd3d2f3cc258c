// Package prompt renders the blog post generation prompt from a keyword and
// its research.
package prompt

import (
	"strings"
	"text/template"

	"github.com/FranksOps/seoscribe/internal/research"
)

// SystemMessage frames the assistant for every generation request.
const SystemMessage = "You are an expert SEO content writer."

// AffiliatePlaceholder is the literal token the draft must contain where a
// product recommendation fits.
const AffiliatePlaceholder = "[Product Name - Affiliate Link Here]"

var postTmpl = template.Must(template.New("post").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}).Parse(`
You are an expert SEO content writer. Your task is to write a blog post with a structured html.

Primary Keyword: "{{.Keyword}}"

Structure Requirements:
- Create a compelling, SEO-friendly title.
- Write a brief introduction that hooks the reader.
- Write 3-5 main sections using H2 headings.
- Write a concluding summary.
- The tone should be helpful, informative, and slightly casual.

Content Requirements:
- The post must be comprehensive and well-researched.
- Directly answer the following "People Also Ask" questions within the content:
  - {{join .Research.PeopleAlsoAsk}}

- Draw inspiration from the following topics and headings found on competing pages. Try to cover similar themes to ensure the article is comprehensive:
  - {{join .Research.CompetitorHeadings}}

- Naturally include some of these related keywords:
  - {{join .Research.RelatedSearches}}

Affiliate Link Placeholder:
- Where it makes sense to recommend a product or service, insert a placeholder in this exact format: {{.Placeholder}}. Insert at least 2-3 of these placeholders.

Now, please write the blog post draft.
`))

// Build renders the prompt. Interpolated values are not escaped.
func Build(keyword string, payload research.Payload) string {
	var b strings.Builder
	// The template only touches strings and slices; Execute cannot fail.
	_ = postTmpl.Execute(&b, struct {
		Keyword     string
		Research    research.Payload
		Placeholder string
	}{keyword, payload, AffiliatePlaceholder})
	return b.String()
}
