// Package docx extracts text from Word documents, such as the galactic code
// and the cooking manual, splitting on heading paragraphs.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{mimeType}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise emits one document per heading section, paragraphs joined by
// newlines. Title and Heading1 paragraphs open a top-level section and
// Heading2 a nested one; Italian style ids such as Titolo1 count too.
func (n *Normaliser) Normalise(_ context.Context, file *domain.SourceFile) ([]domain.Document, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return nil, fmt.Errorf("%s: not a docx archive: %w", file.Path, domain.ErrInvalidInput)
	}

	var body document
	found, err := decodePart(archive, "word/document.xml", &body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	if !found {
		return nil, nil
	}

	// A damaged core.xml only costs the title.
	var props coreProperties
	decodePart(archive, "docProps/core.xml", &props) //nolint:errcheck
	title := strings.TrimSpace(props.Title)

	var (
		docs   []domain.Document
		h1, h2 string
		lines  []string
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if text == "" {
			return
		}
		meta := file.Metadata("docx", title)
		if h1 != "" {
			meta[domain.MetadataHeader1] = h1
		}
		if h2 != "" {
			meta[domain.MetadataHeader2] = h2
		}
		docs = append(docs, domain.Document{Content: text, Metadata: meta})
	}

	for _, p := range body.Paragraphs {
		text := p.text()
		switch level := p.headingLevel(); {
		case level == 1 && text != "":
			flush()
			h1, h2 = text, ""
		case level == 2 && text != "":
			flush()
			h2 = text
		default:
			lines = append(lines, text)
		}
	}
	flush()

	return docs, nil
}

// decodePart unmarshals the named archive member into v. A missing member
// reports false without error.
func decodePart(archive *zip.Reader, name string, v any) (bool, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return true, fmt.Errorf("open %s: %w", name, domain.ErrInvalidInput)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", name, domain.ErrInvalidInput)
		}
		if err := xml.Unmarshal(data, v); err != nil {
			return true, fmt.Errorf("parse %s: %w", name, domain.ErrInvalidInput)
		}
		return true, nil
	}
	return false, nil
}

type document struct {
	Paragraphs []paragraph `xml:"body>p"`
}

type paragraph struct {
	Style struct {
		Val string `xml:"val,attr"`
	} `xml:"pPr>pStyle"`
	Runs []struct {
		Text []string `xml:"t"`
	} `xml:"r"`
}

func (p paragraph) text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			b.WriteString(t)
		}
	}
	return strings.TrimSpace(b.String())
}

// headingLevel returns 1 or 2 for heading styles, 0 otherwise.
func (p paragraph) headingLevel() int {
	style := strings.ToLower(p.Style.Val)
	switch style {
	case "title", "titolo":
		return 1
	}
	for _, prefix := range []string{"heading", "titolo"} {
		if rest, ok := strings.CutPrefix(style, prefix); ok {
			switch strings.TrimSpace(rest) {
			case "1":
				return 1
			case "2":
				return 2
			}
		}
	}
	return 0
}

type coreProperties struct {
	Title string `xml:"title"`
}
