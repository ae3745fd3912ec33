package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// suffixProcessor appends its name to every document.
type suffixProcessor struct {
	name string
	err  error
}

func (m *suffixProcessor) Name() string { return m.name }

func (m *suffixProcessor) Process(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		d.Content += "+" + m.name
		out[i] = d
	}
	return out, nil
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&suffixProcessor{name: "a"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_EmptyPipelinePassesThrough(t *testing.T) {
	docs := []domain.Document{{Content: "menu"}}

	out, err := NewPipeline().Process(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Content != "menu" {
		t.Errorf("expected documents unchanged, got %+v", out)
	}
}

func TestPipeline_RunsInOrder(t *testing.T) {
	p := NewPipeline(&suffixProcessor{name: "first"}, &suffixProcessor{name: "second"})

	out, err := p.Process(context.Background(), []domain.Document{{Content: "menu"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Content != "menu+first+second" {
		t.Errorf("unexpected content %q", out[0].Content)
	}
}

func TestPipeline_ErrorNamesProcessor(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&suffixProcessor{name: "ok"}, &suffixProcessor{name: "broken", err: boom})

	_, err := p.Process(context.Background(), []domain.Document{{Content: "menu"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the processor: %v", err)
	}
}

func TestNewDefaultPipeline(t *testing.T) {
	p, err := NewDefaultPipeline(map[string]any{"chunk_size": int64(10), "overlap": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := p.Process(context.Background(), []domain.Document{{Content: "aaaaaaaaaabbbbbbbbbb"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Content != "aaaaaaaaaa" || out[1].Content != "bbbbbbbbbb" {
		t.Errorf("unexpected chunks %+v", out)
	}
}

func TestNewDefaultPipeline_DropsRepeatedChunks(t *testing.T) {
	p, err := NewDefaultPipeline(map[string]any{"chunk_size": 10, "overlap": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	footer := domain.Document{Content: "Prenota!", Metadata: map[string]any{"source": "menu.md"}}
	out, err := p.Process(context.Background(), []domain.Document{footer, footer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("expected the repeated footer to be dropped, got %+v", out)
	}
}

// dropProcessor discards everything and counts its calls.
type dropProcessor struct{ calls int }

func (d *dropProcessor) Name() string { return "drop" }

func (d *dropProcessor) Process(context.Context, []domain.Document) ([]domain.Document, error) {
	d.calls++
	return nil, nil
}

func TestPipeline_StopsWhenNothingLeft(t *testing.T) {
	first, second := &dropProcessor{}, &dropProcessor{}

	out, err := NewPipeline(first, second).Process(context.Background(), []domain.Document{{Content: "menu"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no documents, got %d", len(out))
	}
	if first.calls != 1 || second.calls != 0 {
		t.Errorf("expected only the first stage to run, got %d and %d", first.calls, second.calls)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&suffixProcessor{name: "a"}).Process(ctx, []domain.Document{{Content: "menu"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
