package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// BuilderFunc turns the settings of one stage into a processor. Values come
// from command flags or TOML, so numbers may be int, int64 or float64.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage is one step of an import pipeline definition.
type Stage struct {
	Name   string
	Config map[string]any
}

// Registry resolves stage names to processor builders.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register binds name to builder. A later call with the same name wins.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the processor registered under name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q (have %v): %w", name, r.Names(), domain.ErrInvalidInput)
	}
	return builder(cfg)
}

// Pipeline builds every stage, in order, into one pipeline.
func (r *Registry) Pipeline(stages ...Stage) (*Pipeline, error) {
	p := NewPipeline()
	for i, stage := range stages {
		processor, err := r.Build(stage.Name, stage.Config)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i+1, err)
		}
		p.Add(processor)
	}
	return p, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names lists the registered processors alphabetically.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
