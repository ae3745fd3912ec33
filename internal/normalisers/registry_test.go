package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

type stubNormaliser struct {
	types    []string
	priority int
	name     string
}

func (s stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s stubNormaliser) Priority() int                { return s.priority }
func (s stubNormaliser) Normalise(context.Context, *domain.SourceFile) ([]domain.Document, error) {
	return []domain.Document{{Content: s.name}}, nil
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"menu.md", "text/markdown"},
		{"MENU.MD", "text/markdown"},
		{"code.txt", "text/plain"},
		{"post.htm", "text/html"},
		{"manual.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"codice.pdf", "application/pdf"},
		{"no-extension", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.path))
		})
	}
}

func TestRegistry_HighestPriorityWins(t *testing.T) {
	r := NewRegistry()
	r.Register(stubNormaliser{types: []string{"text/html"}, priority: 5, name: "fallback"})
	r.Register(stubNormaliser{types: []string{"text/html"}, priority: 50, name: "html"})

	docs, err := r.Normalise(context.Background(), &domain.SourceFile{Path: "a.html", MIMEType: "text/html"})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "html", docs[0].Content)
}

func TestRegistry_DetectsMIMEFromPath(t *testing.T) {
	r := NewDefaultRegistry()

	docs, err := r.Normalise(context.Background(), &domain.SourceFile{
		Path:    "menus/nebula.md",
		Content: []byte("# Nebula\n## Stew\nStardust\n"),
	})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Stew", docs[0].Metadata["header_2"])
}

func TestRegistry_DefaultHTMLUsesHTMLNormaliser(t *testing.T) {
	docs, err := NewDefaultRegistry().Normalise(context.Background(), &domain.SourceFile{
		Path:    "post.html",
		Content: []byte("<p>Comet <b>Tart</b></p>"),
	})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Comet Tart", docs[0].Content)
	assert.Equal(t, "html", docs[0].Metadata["format"])
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := NewDefaultRegistry().Normalise(context.Background(), &domain.SourceFile{Path: "photo.png"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_NilFile(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewDefaultRegistry()

	types := r.SupportedMIMETypes()

	assert.Contains(t, types, "text/markdown")
	assert.Contains(t, types, "text/plain")
	assert.True(t, r.Supports("text/html"))
	assert.False(t, r.Supports("image/png"))
	assert.IsIncreasing(t, types)
}
