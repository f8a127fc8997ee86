package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/api"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API exposing the question-answering engine.

Endpoints:
  GET  /                    service banner
  GET  /health              engine readiness
  POST /ask                 {"question", "top_k", "temperature"}
  GET  /sources/{doc_type}  indexed sources of a type

The server starts even when no index has been built yet; /ask then
answers 503 until 'sage build' has run and the server is restarted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", domain.DefaultServerHost, "listen address")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", domain.DefaultServerPort, "listen port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if wiring == nil {
		return errNotWired
	}

	zl, err := newZapLogger(verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	engine, err := wiring.Engine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Load(ctx); err != nil {
		zl.Warn("engine not ready, serving health only", zap.Error(err))
	} else {
		status := engine.Status()
		zl.Info("engine ready",
			zap.Int("chunks_loaded", status.ChunksLoaded),
			zap.String("embedding_model", status.EmbeddingModel),
			zap.String("llm_model", status.LLMModel))
	}

	cfg := serverConfig(cmd)
	server := api.NewServer(engine, zl, cfg)
	cmd.Printf("Sage's Oracle API listening on http://%s\n", server.Addr())
	return server.Run(ctx)
}

// serverConfig merges --host/--port over the configured server settings.
func serverConfig(cmd *cobra.Command) api.Config {
	cfg := api.Config{Host: serveHost, Port: servePort, Version: version}
	svc, err := settingsService()
	if err != nil {
		return cfg
	}
	settings, err := svc.Get()
	if err != nil {
		return cfg
	}
	if !cmd.Flags().Changed("host") && settings.Server.Host != "" {
		cfg.Host = settings.Server.Host
	}
	if !cmd.Flags().Changed("port") && settings.Server.Port != 0 {
		cfg.Port = settings.Server.Port
	}
	return cfg
}

func newZapLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

