// Package markdown normalises Markdown menus into one document per section.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Metadata keys for section headings.
const (
	MetadataHeader1 = domain.MetadataHeader1
	MetadataHeader2 = domain.MetadataHeader2
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise splits the file on level one and two headings. Each section
// becomes a document whose metadata carries the enclosing headings, so a
// menu yields its restaurant header followed by one document per dish.
func (n *Normaliser) Normalise(_ context.Context, file *domain.SourceFile) ([]domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	var (
		docs    []domain.Document
		h1, h2  string
		section strings.Builder
	)
	flush := func() {
		content := stripMarkdown(section.String())
		section.Reset()
		if content == "" {
			return
		}
		metadata := file.Metadata("markdown", h1)
		if h1 != "" {
			metadata[MetadataHeader1] = h1
		}
		if h2 != "" {
			metadata[MetadataHeader2] = h2
		}
		docs = append(docs, domain.Document{Content: content, Metadata: metadata})
	}

	inFence := false
	for _, line := range strings.Split(string(file.Content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		switch {
		case !inFence && strings.HasPrefix(trimmed, "# "):
			flush()
			h1, h2 = headingText(trimmed), ""
		case !inFence && strings.HasPrefix(trimmed, "## "):
			flush()
			h2 = headingText(trimmed)
		default:
			section.WriteString(line)
			section.WriteByte('\n')
		}
	}
	flush()

	return docs, nil
}

func headingText(line string) string {
	return stripInline(strings.TrimSpace(strings.TrimLeft(line, "#")))
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	codeFence     = regexp.MustCompile("(?m)^\\s*```.*$")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{3,6}\s+`)
	blockquote    = regexp.MustCompile(`(?m)^>\s*`)
	horizontal    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripInline removes emphasis markers and link syntax.
func stripInline(s string) string {
	s = images.ReplaceAllString(s, "")
	s = links.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}

// stripMarkdown simplifies block formatting while keeping list items and
// numbering, which carry ingredient lists on menus.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = stripInline(content)
	content = headings.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "- ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
