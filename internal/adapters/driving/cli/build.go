package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sages-oracle/internal/logger"
)

// watchDebounce groups bursts of file events into one rebuild.
const watchDebounce = 500 * time.Millisecond

var buildWatch bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the corpus and the embedding index",
	Long: `Runs 'sage corpus build' followed by 'sage index build'.

With --watch the command keeps running and rebuilds whenever a raw
category file changes.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when raw files change")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if err := buildAll(cmd); err != nil {
		return err
	}
	if !buildWatch {
		return nil
	}

	paths, err := wiring.WatchPaths()
	if err != nil {
		return err
	}
	cmd.Println("Watching raw files for changes (ctrl+c to stop)...")
	return watchFiles(commandContext(cmd), paths, watchDebounce, func() {
		if err := buildAll(cmd); err != nil {
			cmd.PrintErrf("Rebuild failed: %v\n", err)
		}
	})
}

func buildAll(cmd *cobra.Command) error {
	chunks, err := buildCorpus(cmd)
	if err != nil {
		return err
	}
	printCorpusSummary(cmd, chunks)

	indexer, err := wiring.Indexer()
	if err != nil {
		return err
	}
	index, err := indexer.BuildIndex(commandContext(cmd), chunks)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	printIndexSummary(cmd, index)
	return nil
}

// watchFiles calls onChange after any of paths is written, created, renamed
// or removed, once per quiet period. It blocks until ctx is done.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func()) error {
	if len(paths) == 0 {
		return errors.New("nothing to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Directories are watched so that files created after start are seen.
	wanted := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(p)
		wanted[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watching %s", dir)
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !wanted[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("change detected: %s", event)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timerC:
			timerC = nil
			onChange()
		}
	}
}
