// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"maps"
	"strings"
	"unicode"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 20

// MetadataChunk holds the position of a chunk within its source document.
const MetadataChunk = "chunk"

// Processor splits long documents into overlapping chunks of at most
// chunkSize characters. Documents that fit are passed through unchanged.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every document longer than the chunk size. Chunks copy the
// source metadata and record their position under MetadataChunk.
func (p *Processor) Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pieces := p.split(doc.Content)
		if len(pieces) <= 1 {
			if len(pieces) == 1 {
				out = append(out, doc)
			}
			continue
		}
		for i, piece := range pieces {
			metadata := maps.Clone(doc.Metadata)
			if metadata == nil {
				metadata = make(map[string]any)
			}
			metadata[MetadataChunk] = i
			out = append(out, domain.Document{Content: piece, Metadata: metadata})
		}
	}
	return out, nil
}

// split cuts content into rune windows, ending each window at the last
// whitespace of its second half when there is one.
func (p *Processor) split(content string) []string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= p.chunkSize {
		return []string{string(runes)}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := start + p.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start+p.chunkSize/2 : end]); cut > 0 {
			end = start + p.chunkSize/2 + cut
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		if end == len(runes) {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
