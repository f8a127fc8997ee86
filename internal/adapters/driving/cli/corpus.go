package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the chunk corpus",
}

var corpusBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Chunk raw records into the corpus snapshot",
	Long: `Reads the raw spells, monsters and rules files, formats every record
into text chunks and saves the corpus. Missing categories are skipped
with a warning.`,
	Args: cobra.NoArgs,
	RunE: runCorpusBuild,
}

func init() {
	corpusCmd.AddCommand(corpusBuildCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusBuild(cmd *cobra.Command, _ []string) error {
	chunks, err := buildCorpus(cmd)
	if err != nil {
		return err
	}
	printCorpusSummary(cmd, chunks)
	return nil
}

func buildCorpus(cmd *cobra.Command) ([]domain.Chunk, error) {
	if wiring == nil {
		return nil, errNotWired
	}
	builder, err := wiring.CorpusBuilder()
	if err != nil {
		return nil, err
	}

	chunks, err := builder.Build(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("corpus build failed: %w", err)
	}
	return chunks, nil
}

func printCorpusSummary(cmd *cobra.Command, chunks []domain.Chunk) {
	counts := make(map[string]int)
	for i := range chunks {
		counts[chunks[i].Type()]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	cmd.Printf("Corpus built: %d chunks\n", len(chunks))
	for _, t := range types {
		cmd.Printf("  %s: %d\n", t, counts[t])
	}
}
