package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/plain")
	assert.Contains(t, mimeTypes, "text/html")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	docs, err := New().Normalise(context.Background(), &domain.SourceFile{
		Path:     "/data/code/galactic_code-article-1.txt",
		MIMEType: "text/plain",
		Content:  []byte("\ufeff  Article 1: Licences are required.\n"),
	})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Article 1: Licences are required.", docs[0].Content)
	assert.Equal(t, "galactic_code-article-1.txt", docs[0].Metadata["source"])
	assert.Equal(t, "galactic code article 1", docs[0].Metadata["title"])
}

func TestNormalise_BlankFile(t *testing.T) {
	docs, err := New().Normalise(context.Background(), &domain.SourceFile{Path: "blank.txt", Content: []byte(" \n\t")})

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNormalise_NilFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_UnicodeContent(t *testing.T) {
	content := "Zuppa di Nebulosa: polvere di stelle, sale del vuoto ✨"
	docs, err := New().Normalise(context.Background(), &domain.SourceFile{Path: "zuppa.txt", Content: []byte(content)})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, content, docs[0].Content)
}

func TestNormalise_LargeContentIsOneDocument(t *testing.T) {
	content := strings.Repeat("Stardust ", 10000)
	docs, err := New().Normalise(context.Background(), &domain.SourceFile{Path: "big.txt", Content: []byte(content)})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, strings.TrimSpace(content), docs[0].Content)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}
