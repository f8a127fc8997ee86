package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the embedding index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the saved corpus into the index snapshot",
	Long: `Loads the saved corpus, embeds every chunk with the configured
embedding provider and saves the index. Run 'sage corpus build' first.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	if wiring == nil {
		return errNotWired
	}
	indexer, err := wiring.Indexer()
	if err != nil {
		return err
	}

	index, err := indexer.Rebuild(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	printIndexSummary(cmd, index)
	return nil
}

func printIndexSummary(cmd *cobra.Command, index *domain.EmbeddingIndex) {
	cmd.Printf("Index built: %d vectors, %d dimensions\n", index.Len(), index.Dimensions())
}
