package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/adapters/driven/dataset"
	"github.com/custodia-labs/galassia/internal/bootstrap"
)

var batchOut string

var batchCmd = &cobra.Command{
	Use:   "batch [questions.csv]",
	Short: "Answer every question in a CSV file",
	Long: `Runs each question of a CSV file through its own workflow and writes a
row_id,result CSV. Questions that fail are recorded with result 1; an
unreachable language model or store stops the batch.

The question column is named domanda, question or text (else the first
column). The id column is named row_id, id or question_id (else rows are
numbered from 1).`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "results.csv", "output CSV path")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := dataset.LoadQuestions(args[0])
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return errors.New("no questions found")
	}

	svc, err := openServices(cmd.Context(), bootstrap.Options{RequireLLM: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	sink := dataset.NewResultFile(batchOut)
	runner, err := svc.Batch(sink)
	if err != nil {
		return err
	}

	cmd.Printf("Answering %d questions...\n", len(questions))
	summary, runErr := runner.Run(cmd.Context(), questions)
	if err := sink.Close(); err != nil {
		return errors.Join(runErr, fmt.Errorf("write results: %w", err))
	}
	if runErr != nil {
		return fmt.Errorf("batch stopped: %w", runErr)
	}

	cmd.Printf("Answered %d of %d (%d low confidence, %d failed)\n",
		summary.Answered, summary.Total, summary.LowConfidence, summary.Failed)
	cmd.Printf("Results written to %s\n", sink.Path())
	return nil
}
