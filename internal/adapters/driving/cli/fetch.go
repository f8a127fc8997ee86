package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [category...]",
	Short: "Download raw records from the D&D 5e SRD API",
	Long: `Downloads spells, monsters and rule sections from the public
D&D 5e SRD API into the raw data directory. Requests are rate limited.

Categories: spells, monsters, rules (default: all).`,
	ValidArgs: []string{
		string(domain.CategorySpells),
		string(domain.CategoryMonsters),
		string(domain.CategoryRules),
	},
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(args)
	if err != nil {
		return err
	}

	if wiring == nil {
		return errNotWired
	}
	fetcher, err := wiring.Fetcher()
	if err != nil {
		return err
	}

	counts, err := fetcher.Fetch(commandContext(cmd), categories)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	cmd.Println("Fetched:")
	for _, c := range categories {
		cmd.Printf("  %s: %d\n", c, counts[c])
	}
	cmd.Println("Run 'sage build' to rebuild the index.")
	return nil
}

func parseCategories(args []string) ([]domain.Category, error) {
	if len(args) == 0 {
		return domain.Categories(), nil
	}
	out := make([]domain.Category, 0, len(args))
	seen := make(map[domain.Category]bool)
	for _, a := range args {
		c := domain.Category(a)
		if !c.IsValid() {
			return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, a)
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
