package cli

import (
	"cmp"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

const notSet = "(not set)"

type settingRow struct {
	label, value string
}

type settingSection struct {
	title string
	rows  []settingRow
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Settings")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)
	writeSections(out, describeSettings(settings))

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'galassia settings wizard' to fix configuration issues.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func writeSections(w io.Writer, sections []settingSection) {
	for _, section := range sections {
		fmt.Fprintf(w, "[%s]\n", section.title)
		for _, row := range section.rows {
			fmt.Fprintf(w, "  %s: %s\n", row.label, row.value)
		}
		fmt.Fprintln(w)
	}
}

// describeSettings lists what each collaborator will use. Keys are masked.
func describeSettings(s *domain.AppSettings) []settingSection {
	llm := providerRows(s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey)
	if s.LLM.RequestsPerSecond > 0 {
		llm = append(llm, settingRow{"Rate limit", fmt.Sprintf("%.1f req/s", s.LLM.RequestsPerSecond)})
	}
	llm = append(llm, statusRow(s.LLM.IsConfigured()))

	embedding := append(providerRows(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey),
		statusRow(s.Embedding.IsConfigured()))

	records := settingRow{"In memory", cmp.Or(s.Data.RecordsFile, notSet)}
	if s.RecordStore.IsConfigured() {
		records = settingRow{"MongoDB", s.RecordStore.Database + "/" + s.RecordStore.Collection}
	}

	wf := s.Workflow
	return []settingSection{
		{"LLM", llm},
		{"Embedding", embedding},
		{"Workflow", []settingRow{
			{"Max regenerations", strconv.Itoa(wf.MaxRegenerations)},
			{"Max escalations", strconv.Itoa(wf.MaxEscalations)},
			{"Max steps", strconv.Itoa(wf.MaxSteps)},
			{"Call timeout", wf.CallTimeout.String()},
			{"Grading concurrency", strconv.Itoa(wf.GradingConcurrency)},
			{"Batch concurrency", strconv.Itoa(wf.BatchConcurrency)},
			{"Similarity k", strconv.Itoa(wf.SimilarityK)},
		}},
		{"Record Store", []settingRow{records}},
		{"Dish Graph", []settingRow{{"Database", cmp.Or(s.GraphStore.Path, "document database")}}},
		{"Cache", []settingRow{
			{"Redis", cmp.Or(s.Cache.Addr, "(not set, using local cache)")},
			{"TTL", s.Cache.TTL.String()},
		}},
		{"Web Search", []settingRow{
			{"API Key", maskedOrUnset(s.WebSearch.APIKey)},
			{"Max results", strconv.Itoa(s.WebSearch.MaxResults)},
		}},
		{"Data", []settingRow{
			{"Directory", cmp.Or(s.Data.Dir, "(default)")},
			{"Distance matrix", cmp.Or(s.Data.DistanceCSV, notSet)},
			{"Dish mapping", cmp.Or(s.Data.DishMapping, notSet)},
		}},
	}
}

func providerRows(provider domain.AIProvider, model, baseURL, apiKey string) []settingRow {
	rows := []settingRow{
		{"Provider", provider.Description()},
		{"Model", cmp.Or(model, notSet)},
	}
	if provider.IsLocal() {
		rows = append(rows, settingRow{"Base URL", cmp.Or(baseURL, notSet)})
	}
	if provider.RequiresAPIKey() {
		rows = append(rows, settingRow{"API Key", maskedOrUnset(apiKey)})
	}
	return rows
}

func statusRow(configured bool) settingRow {
	if configured {
		return settingRow{"Status", "configured"}
	}
	return settingRow{"Status", "not configured"}
}

func maskedOrUnset(key string) string {
	if key == "" {
		return notSet
	}
	return maskAPIKey(key)
}
