package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectByExt(path string) string {
	switch filepath.Ext(path) {
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return ""
	}
}

func supportsText(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
}

func TestCollect_WalksDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b_menu.md":           "# B",
		"a_menu.md":           "# A",
		"nested/code.txt":     "Article 1",
		"logo.png":            "binary",
		".hidden.md":          "# hidden",
		".git/objects/x.txt":  "skip",
		"nested/.draft/y.txt": "skip",
	})

	files, err := NewCollector(detectByExt, supportsText).Collect(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(root, "a_menu.md"), files[0].Path)
	assert.Equal(t, filepath.Join(root, "b_menu.md"), files[1].Path)
	assert.Equal(t, filepath.Join(root, "nested", "code.txt"), files[2].Path)
	assert.Equal(t, "text/markdown", files[0].MIMEType)
	assert.Equal(t, "# A", string(files[0].Content))
	assert.Equal(t, "text/plain", files[2].MIMEType)
}

func TestCollect_SingleFileIgnoresFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"logo.png": "binary"})

	files, err := NewCollector(detectByExt, supportsText).Collect(context.Background(), filepath.Join(root, "logo.png"))
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "", files[0].MIMEType)
}

func TestCollect_MissingPath(t *testing.T) {
	_, err := NewCollector(detectByExt, supportsText).Collect(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollect_EmptyDirectory(t *testing.T) {
	files, err := NewCollector(detectByExt, supportsText).Collect(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollect_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "# A"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(detectByExt, supportsText).Collect(ctx, root)

	assert.ErrorIs(t, err, context.Canceled)
}
