// Package cli implements the sage command-line interface with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// SetVersion sets the version reported by `sage version` and the HTTP API.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Options are the persistent flags passed to Wiring.Init.
type Options struct {
	// ConfigDir overrides the configuration directory (default ~/.sage).
	ConfigDir string

	// Verbose enables debug output.
	Verbose bool
}

// Wiring builds the services commands run against.
// Services are built on first use so that `sage settings` works
// before any AI provider is reachable.
type Wiring interface {
	// Init applies the persistent flags. It runs before every command.
	Init(opts Options) error

	// Settings returns the settings service.
	Settings() (driving.SettingsService, error)

	// CorpusBuilder returns the corpus builder.
	CorpusBuilder() (driving.CorpusBuilder, error)

	// Indexer returns the embedding indexer.
	Indexer() (driving.Indexer, error)

	// Engine returns the question-answering engine. It is not loaded.
	Engine() (driving.AskService, error)

	// Fetcher returns the SRD catalog fetch service.
	Fetcher() (driving.FetchService, error)

	// WatchPaths returns the raw files a corpus build reads.
	WatchPaths() ([]string, error)

	// Close releases every service that was built.
	Close() error
}

var wiring Wiring

// SetWiring sets the composition root used by every command.
func SetWiring(w Wiring) {
	wiring = w
}

var errNotWired = errors.New("services not configured")

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "sage",
	Short: "Sage's Oracle: answers D&D 5e rules questions from the SRD",
	Long: `Sage's Oracle answers Dungeons & Dragons 5th edition questions using
retrieval-augmented generation over the System Reference Document.

Typical workflow:
  sage fetch           download spells, monsters and rules
  sage build           chunk the raw records and embed them
  sage ask "How does Fireball work?"`,
	SilenceUsage:      true,
	PersistentPreRunE: initCommand,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default $SAGE_HOME or ~/.sage)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func initCommand(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env: %v", err)
	}

	if wiring == nil {
		return nil
	}
	if err := wiring.Init(Options{ConfigDir: configDir, Verbose: verbose}); err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func settingsService() (driving.SettingsService, error) {
	if wiring == nil {
		return nil, errNotWired
	}
	return wiring.Settings()
}

// loadedEngine returns an engine with its index loaded.
func loadedEngine(ctx context.Context) (driving.AskService, error) {
	if wiring == nil {
		return nil, errNotWired
	}
	engine, err := wiring.Engine()
	if err != nil {
		return nil, err
	}
	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w (run 'sage build' first)", err)
	}
	return engine, nil
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
