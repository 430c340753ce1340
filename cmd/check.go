package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"partcut/internal/check"
	"partcut/internal/config"
	"partcut/internal/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify ffmpeg/ffprobe availability and directory permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Diagnostics run even on an incomplete config; only normalize what
		// is present.
		if cfg.TargetDir != "" {
			cfg.TargetDir = config.NormalizeDirArg(cfg.TargetDir)
			if cfg.LogDir == "" {
				cfg.LogDir = filepath.Join(cfg.TargetDir, "logs")
			}
		}

		log, err := logging.NewLogger(&config.Config{ColorMode: cfg.ColorMode})
		if err != nil {
			return err
		}
		defer log.Close()

		check.RunCheck(&cfg, log)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
