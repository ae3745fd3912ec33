package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/galassia/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, stores, and workflow bounds.

Use subcommands to configure specific settings or run the interactive wizard.
Remaining keys are edited in config.toml under the galassia home directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the language model, embeddings, and web search.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for menu similarity search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that routes, grades, and answers questions.`,
	RunE:  runSettingsLLM,
}

var settingsWebSearchCmd = &cobra.Command{
	Use:   "websearch",
	Short: "Configure web search",
	Long:  `Set the Tavily API key used when a question is routed to web search.`,
	RunE:  runSettingsWebSearch,
}

var errNoSettingsService = errors.New("settings service not configured")

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsWebSearchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}

	cmd.Println("Galassia Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Step 1: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The workflow needs a language model for routing, grading, and answers.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Print("Use embeddings for menu similarity search? [y/N]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "y" || answer == "yes" {
		if err := configureEmbeddingProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Menu search falls back to lexical similarity.")
		cmd.Println()
	}

	cmd.Println("Step 3: Web Search")
	cmd.Println("------------------")
	if err := configureWebSearch(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsWebSearch(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	return configureWebSearch(cmd, bufio.NewReader(os.Stdin))
}

// configureWebSearch stores a Tavily key. An empty key keeps the current one.
func configureWebSearch(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Print("Enter Tavily API key (empty to keep current): ")
	apiKey := readSecret(reader)
	cmd.Println()
	if apiKey == "" {
		cmd.Println("Web search settings unchanged.")
		cmd.Println()
		return nil
	}

	if err := settingsService.SetWebSearch(apiKey, settings.WebSearch.MaxResults); err != nil {
		return fmt.Errorf("failed to save web search settings: %w", err)
	}
	cmd.Printf("Web search configured: %s\n\n", maskAPIKey(apiKey))
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(os.Stdin))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	return configureLLMProvider(cmd, bufio.NewReader(os.Stdin))
}

// providerStep is one "pick a provider" prompt of the wizard.
type providerStep struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	set       func(domain.AIProvider, string, string) error
	validate  func() error
}

func embeddingStep() providerStep {
	return providerStep{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		set:       settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

func llmStep() providerStep {
	return providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		set:       settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	}
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, embeddingStep())
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, llmStep())
}

// configureProvider asks for provider, model and key, saves them, then
// pings the provider so bad credentials surface now rather than mid-run.
func configureProvider(cmd *cobra.Command, reader *bufio.Reader, step providerStep) error {
	cmd.Printf("Select %s Provider\n", step.kind)
	for i, p := range step.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := step.providers[parseChoice(readLine(reader), len(step.providers), 1)-1]

	model := step.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := step.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", step.kind, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", step.kind, provider.Description(), model)
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo on a terminal and from reader otherwise.
func readSecret(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
