package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var errNoSettingsService = errors.New("settings service not configured")

// withSettings fails fast when the settings service was not wired.
func withSettings(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errNoSettingsService
		}
		return run(cmd, args)
	}
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval, chunking and storage.

Use subcommands to configure specific settings or run the interactive wizard.
API keys may also come from OPENAI_API_KEY and ANTHROPIC_API_KEY.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        withSettings(runSettingsShow),
}

var settingsSubcommands = []*cobra.Command{
	{
		Use:   "show",
		Short: "Show current settings",
		RunE:  withSettings(runSettingsShow),
	},
	{
		Use:   "wizard",
		Short: "Interactive setup wizard",
		Long:  `Run an interactive wizard to configure all settings step by step.`,
		RunE:  withSettings(runSettingsWizard),
	},
	{
		Use:   "embedding",
		Short: "Configure embedding provider",
		Long:  `Configure the provider that turns chunks and questions into vectors.`,
		RunE: withSettings(func(cmd *cobra.Command, _ []string) error {
			return embeddingStep.run(cmd, bufio.NewReader(cmd.InOrStdin()))
		}),
	},
	{
		Use:   "llm",
		Short: "Configure LLM provider",
		Long:  `Configure the provider used to rewrite questions and generate answers.`,
		RunE: withSettings(func(cmd *cobra.Command, _ []string) error {
			return llmStep.run(cmd, bufio.NewReader(cmd.InOrStdin()))
		}),
	},
	{
		Use:   "topk [k]",
		Short: "Set how many chunks are retrieved per question",
		Args:  cobra.ExactArgs(1),
		RunE:  withSettings(runSettingsTopK),
	},
	{
		Use:   "chunking [size] [overlap]",
		Short: "Set the chunk window size and overlap",
		Long: `Set the chunk window size and overlap, both in characters.

The overlap must be smaller than the size. Documents already uploaded keep
the chunks they were indexed with.`,
		Args: cobra.ExactArgs(2),
		RunE: withSettings(runSettingsChunking),
	},
}

func init() {
	settingsCmd.AddCommand(settingsSubcommands...)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section(cmd, "Embedding")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())

	section(cmd, "LLM")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	if len(settings.LLM.AllowedModels) > 0 {
		cmd.Printf("  Allowed models: %s\n", strings.Join(settings.LLM.AllowedModels, ", "))
	}

	section(cmd, "Retrieval")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)

	section(cmd, "Chunking")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)

	st := settings.Storage
	section(cmd, "Storage")
	cmd.Printf("  Catalogue: %s\n", withDetail(string(st.Catalog), st.Catalog == domain.StorageGorm, st.CatalogDriver))
	cmd.Printf("  History: %s\n", withDetail(string(st.History), st.History == domain.StorageRedis, st.RedisAddr))
	cmd.Printf("  Index: %s\n", st.Index)

	section(cmd, "Server")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if settings.Embedding.IsConfigured() && settings.LLM.IsConfigured() {
		cmd.Println("Configuration is complete.")
		return nil
	}
	cmd.Println("Warning: AI providers are not fully configured.")
	cmd.Println("Run 'ragchat settings wizard' to fix configuration issues.")
	return nil
}

func section(cmd *cobra.Command, name string) {
	cmd.Println()
	cmd.Printf("[%s]\n", name)
}

// withDetail appends detail in parentheses when show is set and detail is
// not empty.
func withDetail(value string, show bool, detail string) string {
	if !show || detail == "" {
		return value
	}
	return value + " (" + detail + ")"
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if p.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		shown := "(not set)"
		if apiKey != "" {
			shown = maskAPIKey(apiKey)
		}
		cmd.Printf("  API Key: %s\n", shown)
	}
	if configured {
		cmd.Println("  Status: configured")
	} else {
		cmd.Println("  Status: not configured")
	}
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	cmd.Println("ragchat Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	for i, step := range []providerStep{embeddingStep, llmStep} {
		heading := fmt.Sprintf("Step %d: Configure %s Provider", i+1, step.kind)
		cmd.Println(heading)
		cmd.Println(strings.Repeat("-", len(heading)))
		if err := step.run(cmd, reader); err != nil {
			return err
		}
	}

	cmd.Println("Step 3: Retrieval")
	cmd.Println("-----------------")
	defaults := settingsService.GetDefaults()
	cmd.Printf("Chunks per question [%d]: ", defaults.Retrieval.TopK)
	k := parseChoice(readLine(reader), 100, defaults.Retrieval.TopK)
	if err := settingsService.SetTopK(k); err != nil {
		return fmt.Errorf("failed to set top k: %w", describe(err))
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are saved.")
	return nil
}

func runSettingsTopK(cmd *cobra.Command, args []string) error {
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid k %q: must be a positive integer", args[0])
	}
	if err := settingsService.SetTopK(k); err != nil {
		return fmt.Errorf("failed to set top k: %w", describe(err))
	}
	cmd.Printf("Top K set to: %d\n", k)
	return nil
}

func runSettingsChunking(cmd *cobra.Command, args []string) error {
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid size %q: must be an integer", args[0])
	}
	overlap, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid overlap %q: must be an integer", args[1])
	}
	if err := settingsService.SetChunking(size, overlap); err != nil {
		return fmt.Errorf("failed to set chunking: %w", describe(err))
	}
	cmd.Printf("Chunking set to: size %d, overlap %d\n", size, overlap)
	return nil
}

// providerStep is one interactive provider prompt: pick a provider, a
// model and, for hosted providers, an API key, then save and ping it.
type providerStep struct {
	kind      string
	providers func() []domain.AIProvider
	models    func() map[domain.AIProvider]string
	save      func(p domain.AIProvider, model, apiKey string) error
	validate  func(ctx context.Context) error
}

var (
	embeddingStep = providerStep{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders,
		models:    domain.DefaultEmbeddingModels,
		save: func(p domain.AIProvider, model, apiKey string) error {
			return settingsService.SetEmbeddingProvider(p, model, apiKey)
		},
		validate: func(ctx context.Context) error {
			return settingsService.ValidateEmbeddingConfig(ctx)
		},
	}
	llmStep = providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders,
		models:    domain.DefaultLLMModels,
		save: func(p domain.AIProvider, model, apiKey string) error {
			return settingsService.SetLLMProvider(p, model, apiKey)
		},
		validate: func(ctx context.Context) error {
			return settingsService.ValidateLLMConfig(ctx)
		},
	}
)

func (s providerStep) run(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Printf("Select %s Provider\n", s.kind)
	providers := s.providers()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selected := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	model := s.models()[selected]
	cmd.Printf("Enter model name [%s]: ", model)
	if typed := readLine(reader); typed != "" {
		model = typed
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := s.save(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", s.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := s.validate(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", s.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", s.kind, selected.Description(), model)
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n') //nolint:errcheck // EOF yields the partial line
	return strings.TrimSpace(line)
}

// parseChoice returns the 1-based choice in input, or fallback when input
// is empty, malformed or out of range.
func parseChoice(input string, maxVal, fallback int) int {
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return fallback
	}
	return val
}

// readPassword reads without echo on a terminal, otherwise a plain line.
func readPassword(reader *bufio.Reader) string {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if password, err := term.ReadPassword(fd); err == nil {
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
