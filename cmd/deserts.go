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

var desertsCmd = &cobra.Command{
	Use:   "deserts",
	Short: "Detect transit-access deserts and write the grid-cell table",
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
		cellsPath := filepath.Join(cfg.Paths.ProcessedDir, pipeline.CellsFile)
		if err := export.WriteCellsCSV(cellsPath, out.Cells); err != nil {
			return err
		}

		deserts := 0
		for _, c := range out.Cells {
			if c.IsDesert {
				deserts++
			}
		}
		zap.L().Info("desert grid computed",
			zap.Int("cells", len(out.Cells)),
			zap.Int("deserts", deserts),
			zap.String("output", cellsPath),
		)
		return printJSON(out.Overall.DesertsByCity)
	},
}

func init() {
	rootCmd.AddCommand(desertsCmd)
}
