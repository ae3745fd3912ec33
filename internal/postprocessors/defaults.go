package postprocessors

import (
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/postprocessors/chunker"
	"github.com/custodia-labs/galassia/internal/postprocessors/dedup"
)

// Built-in processor names.
const (
	Chunker = "chunker"
	Dedup   = "dedup"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register(Chunker, buildChunker)
	r.Register(Dedup, buildDedup)
}

// DefaultStages chunks imported files and then drops chunks repeated
// within the same file.
func DefaultStages(chunking map[string]any) []Stage {
	return []Stage{
		{Name: Chunker, Config: chunking},
		{Name: Dedup, Config: map[string]any{"scope": string(dedup.ScopeSource)}},
	}
}

// NewDefaultPipeline builds DefaultStages with the given chunking settings.
func NewDefaultPipeline(chunking map[string]any) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Pipeline(DefaultStages(chunking)...)
}

// buildChunker reads chunk_size and overlap, both in characters.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size := intSetting(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(intSetting(cfg, "overlap")))
	}
	return chunker.New(opts...), nil
}

// buildDedup reads scope, "source" or "batch".
func buildDedup(cfg map[string]any) (driven.PostProcessor, error) {
	scope, _ := cfg["scope"].(string)
	return dedup.New(dedup.Scope(scope))
}

func intSetting(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
