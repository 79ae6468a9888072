// Package cli provides the ragchat command line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services configured by the composition root.
var (
	ingestService   driving.IngestService
	documentService driving.DocumentService
	chatService     driving.ChatService
	settingsService driving.SettingsService
	watchFactory    WatchFactory
	serverAddr      string
	reloadPrompts   func()
)

// WatchOptions configures a directory watch.
type WatchOptions struct {
	Root    string
	Include []string
	Exclude []string
}

// WatchFactory builds a watch service over a directory. The returned
// close function releases the underlying watcher.
type WatchFactory func(opts WatchOptions) (driving.WatchService, func() error, error)

// Services is everything the commands need.
type Services struct {
	Ingest   driving.IngestService
	Document driving.DocumentService
	Chat     driving.ChatService
	Settings driving.SettingsService
	Watch    WatchFactory

	// ServerAddr is the configured HTTP listen address.
	ServerAddr string

	// ReloadPrompts drops cached prompt templates. Long-running commands
	// call it on SIGHUP.
	ReloadPrompts func()

	// Close releases stores and provider clients.
	Close func()
}

// InitOptions is passed to the Initializer once flags are parsed.
type InitOptions struct {
	ConfigDir string

	// SettingsOnly asks for the settings service alone, so that a broken
	// provider configuration can still be fixed.
	SettingsOnly bool
}

// Initializer builds services for a command run.
type Initializer func(ctx context.Context, opts InitOptions) (*Services, error)

var (
	initializer Initializer
	closeFn     func()
)

// annotationNoServices marks commands that run without services.
const annotationNoServices = "ragchat/no-services"

// annotationSettingsOnly marks commands that need only settings.
const annotationSettingsOnly = "ragchat/settings-only"

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat answers questions about your documents.

Upload PDF, DOCX, HTML, Markdown or text files, then ask questions in a
conversation. Each answer is grounded in the most relevant passages of
the uploaded documents, and follow-up questions keep their context.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: teardownServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragchat)")
}

// SetInitializer sets the function that builds services before each command.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetOutput redirects command output, which otherwise goes to the terminal.
func SetOutput(w io.Writer) {
	rootCmd.SetOut(w)
	rootCmd.SetErr(w)
}

// Execute runs the root command with args, or with the process arguments
// when none are given.
func Execute(ctx context.Context, args ...string) error {
	if len(args) > 0 {
		rootCmd.SetArgs(args)
	}
	return rootCmd.ExecuteContext(ctx)
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if initializer == nil || hasAnnotation(cmd, annotationNoServices) || isBuiltin(cmd) {
		return nil
	}

	svc, err := initializer(cmd.Context(), InitOptions{
		ConfigDir:    configDir,
		SettingsOnly: hasAnnotation(cmd, annotationSettingsOnly),
	})
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", describe(err))
	}
	useServices(svc)
	return nil
}

func teardownServices(_ *cobra.Command, _ []string) error {
	if closeFn != nil {
		closeFn()
		closeFn = nil
	}
	return nil
}

func useServices(svc *Services) {
	ingestService = svc.Ingest
	documentService = svc.Document
	chatService = svc.Chat
	settingsService = svc.Settings
	watchFactory = svc.Watch
	serverAddr = svc.ServerAddr
	reloadPrompts = svc.ReloadPrompts
	closeFn = svc.Close
}

// isBuiltin reports whether cmd is one of cobra's generated commands.
func isBuiltin(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

// hasAnnotation reports whether cmd or one of its parents carries key.
func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}
