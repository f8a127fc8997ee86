package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
	"github.com/custodia-labs/sages-oracle/internal/core/ports/driving"
)

var (
	askTopK        int
	askTemperature float64
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a rules question",
	Long: `Retrieves the most relevant SRD chunks and asks the LLM for an answer
grounded on them, with numbered sources.

Without a question argument, questions are read one per line from stdin.
On a terminal this is an interactive session; type 'exit' to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	askCmd.Flags().Float64VarP(&askTemperature, "temperature", "t", domain.DefaultTemperature, "generation temperature (0-1)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	engine, err := loadedEngine(ctx)
	if err != nil {
		return err
	}
	opts := askOptions(cmd, askTopK, askTemperature)

	if len(args) == 1 {
		return askOne(cmd, engine, args[0], opts)
	}
	return askLoop(cmd, engine, cmd.InOrStdin(), opts, isTerminal(cmd.InOrStdin()))
}

func askOne(cmd *cobra.Command, engine driving.AskService, question string, opts domain.AskOptions) error {
	answer, err := engine.Ask(commandContext(cmd), question, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printAnswer(cmd, answer)
	return nil
}

// askLoop answers one question per input line until EOF or "exit".
// Errors for a single question are printed and the loop continues.
func askLoop(cmd *cobra.Command, engine driving.AskService, in io.Reader, opts domain.AskOptions, interactive bool) error {
	if interactive {
		cmd.Println("Ask the Sage a question (type 'exit' to quit).")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			cmd.Print("\n> ")
		}
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}
		if err := askOne(cmd, engine, question, opts); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read question: %w", err)
	}
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.AnswerResponse) {
	cmd.Println(answer.Answer)
	if len(answer.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Printf("Sources (%d):\n", answer.ContextUsed)
	for _, s := range answer.Sources {
		cmd.Printf("  [%d] %s (%s, %.3f)\n", s.DocID, s.Name, s.Type, s.RelevanceScore)
		if s.URL != "" {
			cmd.Printf("      %s\n", s.URL)
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
