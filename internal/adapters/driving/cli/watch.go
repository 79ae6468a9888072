package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	watchInclude []string
	watchExclude []string
	watchOnce    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory in sync with the index",
	Long: `Ingests every supported file under a directory, then watches it.

New files are uploaded, changed files replace their previous version and
removed files are deleted from the index. Hidden files and directories
are skipped. Patterns use ** globs relative to the directory.

Examples:
  ragchat watch ~/notes
  ragchat watch ./docs --include "**/*.md" --exclude "drafts/**"
  ragchat watch ./docs --once`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchInclude, "include", nil, "glob patterns to include (default: all supported formats)")
	watchCmd.Flags().StringSliceVar(&watchExclude, "exclude", nil, "glob patterns to exclude")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "sync once and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFactory == nil {
		return errors.New("watch service not configured")
	}

	svc, closeWatcher, err := watchFactory(WatchOptions{
		Root:    args[0],
		Include: watchInclude,
		Exclude: watchExclude,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", args[0], describe(err))
	}
	defer func() {
		if err := closeWatcher(); err != nil {
			logger.Warn("closing watcher: %v", err)
		}
	}()

	n, err := svc.Sync(cmd.Context())
	if err != nil {
		return fmt.Errorf("initial sync failed: %w", describe(err))
	}
	cmd.Printf("Synced %s: %d files ingested\n", args[0], n)

	if watchOnce {
		return nil
	}

	cmd.Println("Watching for changes (Ctrl+C to stop)...")
	if err := svc.Run(cmd.Context()); err != nil {
		return fmt.Errorf("watch stopped: %w", describe(err))
	}
	return nil
}
