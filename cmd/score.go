package main

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/export"
	"github.com/libraryreach/reach-cli/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score library branches and write the scored-libraries table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := loadAndCompute(ctx)
		if err != nil {
			return err
		}

		if err := ensureProcessedDir(); err != nil {
			return err
		}
		path := filepath.Join(cfg.Paths.ProcessedDir, pipeline.LibrariesFile)
		if err := export.WriteLibrariesCSV(path, out.Libraries, cfg.Buffers.RadiiM); err != nil {
			return err
		}

		zap.L().Info("libraries scored",
			zap.Int("count", len(out.Libraries)),
			zap.Float64("reference_lat_deg", out.ReferenceLatDeg),
			zap.String("output", path),
		)
		return printJSON(out.Overall.Metrics)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
