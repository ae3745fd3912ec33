package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/bootstrap"
	"github.com/custodia-labs/galassia/internal/core/domain"
)

var (
	askID   int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Runs one question through the workflow and prints the answer, the dishes
it names and their dataset ids.

Examples:
  galassia ask "Which dishes on Tatooine use Stardust?"
  galassia ask --id 12 --json "Quali piatti usano la Polvere di Stelle?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askID, "id", 0, "question identifier echoed in the output")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON shape of an answered question.
type askOutput struct {
	QuestionID    int      `json:"question_id"`
	Answer        string   `json:"answer"`
	Results       []string `json:"results"`
	ResultIDs     string   `json:"result_ids"`
	LowConfidence bool     `json:"low_confidence"`
	Trace         []string `json:"trace"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	svc, err := openServices(cmd.Context(), bootstrap.Options{RequireLLM: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Workflow.RunWorkflow(cmd.Context(), question, askID)
	if err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}

	out := askOutput{
		QuestionID:    askID,
		Answer:        result.Answer,
		Results:       result.Results,
		ResultIDs:     svc.Formatter.Format(result.Results),
		LowConfidence: result.LowConfidence,
		Trace:         traceNames(result.State.Trace),
	}
	if out.Results == nil {
		out.Results = []string{}
	}

	if askJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printAnswer(cmd, out)
	return nil
}

func printAnswer(cmd *cobra.Command, out askOutput) {
	w := cmd.OutOrStdout()

	cmd.Println(styled(w, headingStyle, "Answer:"))
	answer := out.Answer
	if answer == "" {
		answer = "(no answer)"
	}
	for _, line := range strings.Split(answer, "\n") {
		cmd.Printf("  %s\n", line)
	}
	cmd.Println()

	if len(out.Results) > 0 {
		cmd.Printf("%s %s\n", styled(w, headingStyle, "Dishes:"), strings.Join(out.Results, ", "))
	}
	cmd.Printf("%s %s\n", styled(w, headingStyle, "Result:"), styled(w, resultStyle, out.ResultIDs))
	if out.LowConfidence {
		cmd.Println(styled(w, warnStyle, "Low confidence: a loop bound ended the run before the answer was graded useful."))
	}
	if verbose {
		cmd.Println(styled(w, dimStyle, "Trace: "+strings.Join(out.Trace, " > ")))
	}
}

func traceNames(trace []domain.Stage) []string {
	names := make([]string, len(trace))
	for i, stage := range trace {
		names[i] = stage.String()
	}
	return names
}
