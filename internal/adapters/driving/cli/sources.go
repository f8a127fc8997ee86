package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// Output formats for `sage sources`.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var sourcesFormat string

var sourcesCmd = &cobra.Command{
	Use:   "sources [type]",
	Short: "List indexed sources of a document type",
	Long: `Lists the metadata of every indexed chunk of a document type
(spell, monster or rule), in corpus order.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{domain.DocTypeSpell, domain.DocTypeMonster, domain.DocTypeRule},
	RunE:      runSources,
}

func init() {
	sourcesCmd.Flags().StringVarP(&sourcesFormat, "format", "f", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	switch sourcesFormat {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, sourcesFormat)
	}

	ctx := commandContext(cmd)
	engine, err := loadedEngine(ctx)
	if err != nil {
		return err
	}

	docType := args[0]
	sources, err := engine.Sources(ctx, docType)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if sources == nil {
		sources = []domain.Metadata{}
	}

	switch sourcesFormat {
	case formatJSON:
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		cmd.Println(string(data))
	case formatYAML:
		data, err := yaml.Marshal(sources)
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		cmd.Print(string(data))
	default:
		outputSourcesTable(cmd, docType, sources)
	}
	return nil
}

func outputSourcesTable(cmd *cobra.Command, docType string, sources []domain.Metadata) {
	if len(sources) == 0 {
		cmd.Printf("No %s sources indexed.\n", docType)
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSOURCE\tURL")
	for i, m := range sources {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, chunkTitle(m), m.String(domain.MetaSource), m.String(domain.MetaURL))
	}
	_ = w.Flush()
	cmd.Printf("\n%d %s sources\n", len(sources), docType)
}
