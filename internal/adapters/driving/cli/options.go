package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// askOptions merges the -k/-t flags over the configured retrieval defaults.
// Flags the user did not set take the value from settings.
func askOptions(cmd *cobra.Command, topK int, temperature float64) domain.AskOptions {
	opts := domain.DefaultAskOptions()
	if svc, err := settingsService(); err == nil {
		if settings, err := svc.Get(); err == nil && settings.Retrieval.TopK > 0 {
			opts.TopK = settings.Retrieval.TopK
			opts.Temperature = settings.Retrieval.Temperature
		}
	}

	if f := cmd.Flags().Lookup("top-k"); f != nil && f.Changed {
		opts.TopK = topK
	}
	if f := cmd.Flags().Lookup("temperature"); f != nil && f.Changed {
		opts.Temperature = temperature
	}
	return opts
}
