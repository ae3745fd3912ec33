package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestBatch_WritesResults(t *testing.T) {
	env := newTestEnv(t)
	env.workflow.results["Which dishes use Stardust?"] = domain.WorkflowResult{Results: []string{"Comet Tart", "Nebula Stew"}}
	env.workflow.results["Who cooks on Namek?"] = domain.WorkflowResult{LowConfidence: true}

	questions := writeTestFile(t, "questions.csv", "domanda\nWhich dishes use Stardust?\nWho cooks on Namek?\n")
	out := filepath.Join(t.TempDir(), "results.csv")

	stdout, err := execute(t, "batch", questions, "--out", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Answered 2 of 2 (1 low confidence, 0 failed)")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "row_id,result\n1,\"12,7\"\n2,1\n", string(data))
}

func TestBatch_EmptyQuestionFile(t *testing.T) {
	newTestEnv(t)
	questions := writeTestFile(t, "questions.csv", "domanda\n")

	_, err := execute(t, "batch", questions)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")
}

func TestBatch_FatalErrorStopsBatch(t *testing.T) {
	env := newTestEnv(t)
	env.workflow.err = domain.ErrLLMUnavailable
	questions := writeTestFile(t, "questions.csv", "row_id,domanda\n5,q\n")

	_, err := execute(t, "batch", questions, "-o", filepath.Join(t.TempDir(), "results.csv"))

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestBatch_MissingFile(t *testing.T) {
	newTestEnv(t)

	_, err := execute(t, "batch", filepath.Join(t.TempDir(), "missing.csv"))

	assert.Error(t, err)
}
