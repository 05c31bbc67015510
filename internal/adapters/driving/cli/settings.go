package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, index and answer options.

Use subcommands to configure specific settings or run the interactive wizard.
Values set through SHELFWISE_* environment variables take precedence over
the config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key.

Examples:
  shelfwise settings set answer.top_k 8
  shelfwise settings set answer.timeout 45s
  shelfwise settings set index.backend sqlite
  shelfwise settings set embedding.requests_per_second 5`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:       "set-key [embedding|llm]",
	Short:     "Store an API key without echoing it",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"embedding", "llm"},
	RunE:      runSettingsSetKey,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index the catalog.
Changing the embedding model requires a rebuild.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to answer questions.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	printProviderAccess(cmd, settings.Embedding.Provider, settings.Embedding.BaseURL, settings.Embedding.APIKey)
	printRateLimit(cmd, settings.Embedding.RequestsPerSecond)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		printProviderAccess(cmd, settings.LLM.Provider, settings.LLM.BaseURL, settings.LLM.APIKey)
		printRateLimit(cmd, settings.LLM.RequestsPerSecond)
	}
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	// Index settings
	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	cmd.Printf("  Name: %s\n", settings.Index.Name)
	cmd.Printf("  Concurrency: %d\n", settings.Index.Concurrency)
	cmd.Printf("  Rebuild timeout: %s\n", formatTimeout(settings.Index.RebuildTimeout))
	cmd.Println()

	// Answer settings
	cmd.Println("[Answer]")
	cmd.Printf("  Top K: %d\n", settings.Answer.TopK)
	cmd.Printf("  Max context tokens: %d\n", settings.Answer.MaxContextTokens)
	cmd.Printf("  Max answer tokens: %d\n", settings.Answer.MaxAnswerTokens)
	cmd.Printf("  Temperature: %.2f\n", settings.Answer.Temperature)
	cmd.Printf("  Timeout: %s\n", formatTimeout(settings.Answer.Timeout))
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'shelfwise settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], ".api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", args[0], value)
	if strings.HasPrefix(args[0], "embedding.") && args[0] != "embedding.requests_per_second" {
		cmd.Println("Embedding settings changed. Run 'shelfwise reindex' before asking questions.")
	}
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	apiKey := newPrompter(cmd).secret(fmt.Sprintf("Enter %s API key: ", args[0]))
	if apiKey == "" {
		return errors.New("API key is required")
	}

	key := args[0] + ".api_key"
	if err := settingsService.Set(key, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("Stored %s API key %s\n", args[0], maskAPIKey(apiKey))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Shelfwise Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	in := newPrompter(cmd)

	cmd.Println("Step 1: Embedding provider")
	cmd.Println("Embeddings index the catalog. The built-in provider works offline.")
	cmd.Println()
	if err := configureProvider(cmd, in, embeddingStep); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM provider")
	cmd.Println("An LLM is required to answer questions. Search works without one.")
	if !in.confirm("Configure an LLM provider now? [Y/n]: ") {
		cmd.Println("Skipped. Run 'shelfwise settings llm' later.")
		cmd.Println()
	} else {
		cmd.Println()
		if err := configureProvider(cmd, in, llmStep); err != nil {
			return err
		}
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, newPrompter(cmd), embeddingStep)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, newPrompter(cmd), llmStep)
}

// providerStep describes one of the two provider questions.
type providerStep struct {
	label     string
	providers func() []domain.AIProvider
	models    func() map[domain.AIProvider]string
	set       func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
	after     string
}

var embeddingStep = providerStep{
	label:     "Embedding",
	providers: domain.AllEmbeddingProviders,
	models:    domain.DefaultEmbeddingModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetEmbeddingProvider(p, model, apiKey)
	},
	validate: func() error { return settingsService.ValidateEmbeddingConfig() },
	after:    "Run 'shelfwise reindex' to rebuild the index with this model.",
}

var llmStep = providerStep{
	label:     "LLM",
	providers: domain.AllLLMProviders,
	models:    domain.DefaultLLMModels,
	set: func(p domain.AIProvider, model, apiKey string) error {
		return settingsService.SetLLMProvider(p, model, apiKey)
	},
	validate: func() error { return settingsService.ValidateLLMConfig() },
}

func configureProvider(cmd *cobra.Command, in *prompter, step providerStep) error {
	providers := step.providers()
	cmd.Printf("Select %s provider\n", step.label)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	provider := providers[parseChoice(in.line("\nEnter choice [1]: "), len(providers), 1)-1]

	defaultModel := step.models()[provider]
	model := in.line(fmt.Sprintf("Enter model name [%s]: ", defaultModel))
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		apiKey = in.secret("Enter API key: ")
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := step.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := step.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", step.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", step.label, provider.Description(), model)
	if step.after != "" {
		cmd.Println(step.after)
	}
	cmd.Println()
	return nil
}

// prompter reads answers from the command's input. Secrets are read without
// echo when the input is a terminal.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line(prompt string) string {
	p.cmd.Print(prompt)
	input, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (p *prompter) confirm(prompt string) bool {
	switch strings.ToLower(p.line(prompt)) {
	case "n", "no":
		return false
	default:
		return true
	}
}

func (p *prompter) secret(prompt string) string {
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.cmd.Print(prompt)
		password, err := term.ReadPassword(int(f.Fd()))
		p.cmd.Println()
		if err == nil {
			return strings.TrimSpace(string(password))
		}
		return ""
	}
	return p.line(prompt)
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

func printProviderAccess(cmd *cobra.Command, provider domain.AIProvider, baseURL, apiKey string) {
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
}

func printRateLimit(cmd *cobra.Command, rps float64) {
	if rps > 0 {
		cmd.Printf("  Rate limit: %g requests/s\n", rps)
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
