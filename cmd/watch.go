package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"partcut/internal/check"
	"partcut/internal/display"
	"partcut/internal/logging"
	"partcut/internal/pipeline"
	"partcut/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [sources...]",
	Short: "Watch the source directories and split new files as they settle",
	Long: `watch runs an initial batch, then monitors the source directories for
new files. A file triggers a batch only once it has stopped growing, so
in-progress recordings and copies are left alone.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := finalize(args); err != nil {
			return err
		}

		log, err := logging.NewLogger(&cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		display.PrintBanner()

		if err := check.CheckDeps(); err != nil {
			log.Error("%v", err)
			return err
		}

		ctx, stop := signalContext(log)
		defer stop()

		w := watcher.New(&cfg, log, func(ctx context.Context) {
			b, err := pipeline.New(&cfg, log)
			if err != nil {
				log.Error("batch setup: %v", err)
				return
			}
			defer b.Close()
			if stats := b.Run(ctx); stats.Failed > 0 {
				log.Warn("%d file(s) failed this batch", stats.Failed)
			}
		})
		if err := w.Watch(ctx); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
