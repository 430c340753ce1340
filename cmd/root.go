// Package cmd wires the CLI: flag parsing, config-file merging, and the
// batch / watch / check / version commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"partcut/internal/check"
	"partcut/internal/config"
	"partcut/internal/display"
	"partcut/internal/logging"
	"partcut/internal/pipeline"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "partcut [sources...]",
	Short: "Split oversized media files into playable parts with ffmpeg stream copy",
	Long: `partcut splits media files that exceed a size limit (or a requested part
count) into independently playable parts, without re-encoding. Runs are
resumable: parts that already exist on disk are never recreated, so an
interrupted batch continues where it left off.

Sources may be files, directories, doublestar glob patterns, or .txt files
listing one path per line.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.DefaultConfig()
		path := cfgFile
		if path == "" {
			path = config.FilePath()
		}
		if err := config.LoadFile(&cfg, path); err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args)
	},
}

// Flag variables. Values only reach cfg when the flag was explicitly set,
// so the config file keeps authority over untouched options.
var (
	flagTarget     string
	flagParts      int
	flagSizeLimit  string
	flagMargin     float64
	flagKeyword    string
	flagAfter      string
	flagBefore     string
	flagPattern    string
	flagExtensions []string
	flagDryRun     bool
	flagRelocate   bool
	flagConcurrent int
	flagLogDir     string
	flagColor      string
	flagVerbose    bool
)

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "partcut: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.config/partcut/config.yaml)")
	pf.StringVarP(&flagTarget, "target", "t", "", "directory the parts are written to")
	pf.IntVarP(&flagParts, "parts", "p", 0, "split every file into exactly this many parts")
	pf.StringVarP(&flagSizeLimit, "size-limit", "s", "", "maximum part size, e.g. 500MB or 2GB")
	pf.Float64Var(&flagMargin, "margin", config.DefaultSafetyMargin, "safety margin for the size limit (0..0.5)")
	pf.StringVarP(&flagKeyword, "keyword", "k", "", "only files whose name contains this substring")
	pf.StringVar(&flagAfter, "after", "", "only files created at or after yymmdd[-hh:mm:ss]")
	pf.StringVar(&flagBefore, "before", "", "only files created before yymmdd[-hh:mm:ss]")
	pf.StringVar(&flagPattern, "pattern", config.DefaultPattern, "part name pattern ('#' index, '##' total)")
	pf.StringSliceVar(&flagExtensions, "ext", nil, "extensions to consider (default common media types)")
	pf.BoolVarP(&flagDryRun, "dry-run", "n", false, "classify and report, write nothing")
	pf.BoolVar(&flagRelocate, "relocate", false, "move completed sources to the '<dir> source' archive")
	pf.IntVarP(&flagConcurrent, "concurrent", "c", 0, "worker count (default CPUs-1)")
	pf.StringVar(&flagLogDir, "log-dir", "", "log directory (default <target>/logs)")
	pf.StringVar(&flagColor, "color", string(config.ColorAuto), "color output: auto, always or never")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("target") {
		c.TargetDir = flagTarget
	}
	if flags.Changed("parts") {
		c.Parts = flagParts
	}
	if flags.Changed("size-limit") {
		c.SizeLimit = flagSizeLimit
	}
	if flags.Changed("margin") {
		c.SafetyMargin = flagMargin
	}
	if flags.Changed("keyword") {
		c.Keyword = flagKeyword
	}
	if flags.Changed("after") {
		c.After = flagAfter
	}
	if flags.Changed("before") {
		c.Before = flagBefore
	}
	if flags.Changed("pattern") {
		c.Pattern = flagPattern
	}
	if flags.Changed("ext") {
		c.Extensions = flagExtensions
	}
	if flags.Changed("dry-run") {
		c.DryRun = flagDryRun
	}
	if flags.Changed("relocate") {
		c.Relocate = flagRelocate
	}
	if flags.Changed("concurrent") {
		c.Concurrent = flagConcurrent
	}
	if flags.Changed("log-dir") {
		c.LogDir = flagLogDir
	}
	if flags.Changed("color") {
		c.ColorMode = config.ColorMode(flagColor)
	}
	if flags.Changed("verbose") {
		c.Verbose = flagVerbose
	}
}

// finalize merges positional sources into cfg and validates it.
func finalize(args []string) error {
	if len(args) > 0 {
		cfg.Sources = args
	}
	return cfg.Validate()
}

func runBatch(args []string) error {
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

	b, err := pipeline.New(&cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	stats := b.Run(ctx)
	if stats.Failed > 0 {
		return fmt.Errorf("%d file(s) failed", stats.Failed)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, so the batch
// stops cleanly between extractions.
func signalContext(log *logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current extraction...")
		cancel()
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
