package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML menu pages and articles.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority sits above the plaintext fallback.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise splits the visible text of the page on <h1> and <h2>. Every
// section becomes a document carrying its headings, so a restaurant page
// yields one document per dish. Text before the first heading forms its
// own section.
func (n *Normaliser) Normalise(_ context.Context, file *domain.SourceFile) ([]domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	raw := string(file.Content)
	title := pageTitle(raw)
	body := removeHidden(raw)

	var (
		docs   []domain.Document
		h1, h2 string
		last   int
	)
	emit := func(fragment string) {
		text := stripHTML(fragment)
		if text == "" {
			return
		}
		meta := file.Metadata("html", title)
		if h1 != "" {
			meta[domain.MetadataHeader1] = h1
		}
		if h2 != "" {
			meta[domain.MetadataHeader2] = h2
		}
		docs = append(docs, domain.Document{Content: text, Metadata: meta})
	}

	for _, m := range headingTag.FindAllStringSubmatchIndex(body, -1) {
		emit(body[last:m[0]])
		last = m[1]

		text := strings.Join(strings.Fields(stripHTML(body[m[4]:m[5]])), " ")
		if body[m[2]:m[3]] == "1" {
			h1, h2 = text, ""
		} else {
			h2 = text
		}
	}
	emit(body[last:])

	return docs, nil
}

var (
	titleTag     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	headingTag   = regexp.MustCompile(`(?is)<h([12])[^>]*>(.*?)</h[12]>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	lineBreaks   = regexp.MustCompile(`(?i)<(br|hr)\s*/?>|</?(p|div|h[1-6]|li|tr|td|th|dt|dd|blockquote|pre|table|section|article)(\s[^>]*)?>`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	multiSpaces  = regexp.MustCompile(`[ \t\r]+`)
)

// hiddenTags are removed in order; head goes last so a style block inside
// it cannot end the match early.
var hiddenTags = func() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, tag := range []string{"script", "style", "noscript", "svg", "template", "head"} {
		out = append(out, regexp.MustCompile(`(?is)<`+tag+`[\s>].*?</`+tag+`>`))
	}
	return out
}()

// pageTitle returns the decoded <title>, empty when absent.
func pageTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// removeHidden drops elements whose content is never rendered as text.
func removeHidden(content string) string {
	content = htmlComments.ReplaceAllString(content, "")
	for _, re := range hiddenTags {
		content = re.ReplaceAllString(content, "")
	}
	return content
}

// stripHTML reduces markup to one line per block element.
func stripHTML(content string) string {
	content = removeHidden(content)
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
