package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui"
)

var (
	tuiTopK        int
	tuiTemperature float64
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Chat with the Sage in an interactive terminal UI",
	Long: `Launch an interactive chat with the Sage.

Each question is answered from the loaded index and the sources of the
latest answer are listed under the transcript.

Controls:
  Enter        - Ask
  Esc          - Clear the transcript
  PgUp/PgDn    - Scroll
  Ctrl+H       - Toggle help
  Ctrl+C       - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "number of chunks to retrieve")
	tuiCmd.Flags().Float64VarP(&tuiTemperature, "temperature", "t", 0, "generation temperature (0 to 1)")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp loads the engine and builds the TUI model.
func newTUIApp(cmd *cobra.Command) (*tui.App, error) {
	ctx := commandContext(cmd)

	engine, err := loadedEngine(ctx)
	if err != nil {
		return nil, err
	}

	ports := tui.NewPorts(engine)
	ports.Options = askOptions(cmd, tuiTopK, tuiTemperature)

	app, err := tui.NewApp(ports)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(ctx), nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newTUIApp(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
