// Package postprocessors reshapes normalised documents before they are
// stored: chunking to the embedder's window, then dropping duplicates.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

var log = logger.Scoped("pipeline")

// Pipeline feeds each processor's output to the next.
type Pipeline struct {
	processors []driven.PostProcessor
}

func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process stops early once a stage leaves nothing to pass on, and between
// stages when ctx is done.
func (p *Pipeline) Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	for _, stage := range p.processors {
		if len(docs) == 0 {
			return docs, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in := len(docs)
		out, err := stage.Process(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", stage.Name(), err)
		}
		log.Debug("%s: %d -> %d documents", stage.Name(), in, len(out))
		docs = out
	}
	return docs, nil
}

func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

func (p *Pipeline) Len() int {
	return len(p.processors)
}
