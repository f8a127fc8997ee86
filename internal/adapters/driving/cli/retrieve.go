package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

var (
	retrieveTopK int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Show the chunks most similar to a question",
	Long: `Embeds the question and ranks every chunk of the index by dot-product
similarity, without calling the LLM. Useful to check what context an
answer would be grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	engine, err := loadedEngine(ctx)
	if err != nil {
		return err
	}

	opts := askOptions(cmd, retrieveTopK, 0)
	ranked, err := engine.Retrieve(ctx, args[0], opts.TopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, ranked)
	}
	outputRetrieveTable(cmd, ranked)
	return nil
}

func outputRetrieveJSON(cmd *cobra.Command, ranked []domain.ScoredChunk) error {
	if ranked == nil {
		ranked = []domain.ScoredChunk{}
	}
	data, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, ranked []domain.ScoredChunk) {
	if len(ranked) == 0 {
		cmd.Println("No chunks indexed.")
		return
	}

	for i := range ranked {
		c := ranked[i].Chunk
		cmd.Printf("  [%d] %s (%s, %.3f)\n", i+1, chunkTitle(c.Metadata), c.Type(), ranked[i].Score)
		if line := firstContentLine(c.Text); line != "" {
			cmd.Printf("      %s\n", line)
		}
	}
}

// chunkTitle names a chunk by its record name, falling back to the rule section.
func chunkTitle(m domain.Metadata) string {
	return m.StringOr(domain.MetaName, m.StringOr(domain.MetaSection, "Unknown"))
}

// firstContentLine returns the first non-heading line of a chunk, truncated.
func firstContentLine(text string) string {
	const maxLen = 100
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if r := []rune(line); len(r) > maxLen {
			return string(r[:maxLen]) + "..."
		}
		return line
	}
	return ""
}
