package pdf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	args   []string
	input  []byte
}

func (m *mockRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	m.args = args
	if len(args) >= 2 {
		m.input, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func TestNormaliser_Basics(t *testing.T) {
	n := New()

	assert.Equal(t, []string{"application/pdf"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilFile(t *testing.T) {
	docs, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, docs)
}

func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Manuale di Cucina\n\nSezione 1: Tecniche di Taglio\f")}
	n := NewWithRunner(runner)

	docs, err := n.Normalise(context.Background(), &domain.SourceFile{
		Path:    "manuals/manuale_di_cucina.pdf",
		Content: []byte("%PDF-1.4 fake"),
	})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Manuale di Cucina", docs[0].Metadata["title"])
	assert.Equal(t, "manuale_di_cucina.pdf", docs[0].Metadata["source"])
	assert.Equal(t, "pdf", docs[0].Metadata["format"])
	assert.Contains(t, docs[0].Content, "Tecniche di Taglio")
	assert.Equal(t, "%PDF-1.4 fake", string(runner.input))
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
}

func TestNormalise_EmptyText(t *testing.T) {
	n := NewWithRunner(&mockRunner{output: []byte("\f\n  ")})

	docs, err := n.Normalise(context.Background(), &domain.SourceFile{Path: "scan.pdf"})

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNormalise_RunnerError(t *testing.T) {
	n := NewWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	docs, err := n.Normalise(context.Background(), &domain.SourceFile{Path: "doc.pdf"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, docs)
}

func TestTitleLine(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"first line", "Codice Galattico\n\nArticolo 1", "Codice Galattico"},
		{"skip empty lines", "\n\n\nActual Title\nContent", "Actual Title"},
		{"no text", "", ""},
		{"skip long first line", strings.Repeat("x", 250) + "\nShort Title", "Short Title"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, titleLine(tc.content))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()

	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
