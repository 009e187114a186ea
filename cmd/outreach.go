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

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Rank outreach candidate sites against desert coverage",
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
		path := filepath.Join(cfg.Paths.ProcessedDir, pipeline.RecommendationsFile)
		if err := export.WriteRecommendationsCSV(path, out.Recommendations); err != nil {
			return err
		}

		zap.L().Info("outreach sites ranked",
			zap.Int("recommendations", len(out.Recommendations)),
			zap.String("output", path),
		)
		return printJSON(out.Recommendations)
	},
}

func init() {
	rootCmd.AddCommand(outreachCmd)
}
