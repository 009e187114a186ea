package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/pipeline"
	"github.com/libraryreach/reach-cli/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: score, deserts, outreach, summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out, err := loadAndCompute(ctx)
		if err != nil {
			return err
		}

		radii := cfg.Buffers.RadiiM
		files, err := pipeline.WriteArtifacts(out, radii, cfg.Paths.ProcessedDir)
		if err != nil {
			return err
		}

		meta := pipeline.NewRunMeta(scenario, out, files)
		if err := meta.WriteJSON(cfg.Paths.ProcessedDir); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.SaveRun(ctx, scenario, out.ReferenceLatDeg, out.Cities)
		if err != nil {
			return err
		}
		for city, sum := range out.SummariesByCity {
			if err := st.SaveCitySummary(ctx, run.ID, city, sum); err != nil {
				return err
			}
		}

		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.String("scenario", scenario),
			zap.Int("libraries", len(out.Libraries)),
			zap.Int("deserts", out.Overall.Metrics.DesertsCount),
			zap.Int("recommendations", len(out.Recommendations)),
		)

		return printJSON(out.Overall)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadAndCompute loads catalogs from the configured directory and runs the
// engine under the active scenario config.
func loadAndCompute(ctx context.Context) (*pipeline.Outputs, error) {
	cats, err := pipeline.LoadCatalogs(ctx, cfg.Paths.CatalogsDir)
	if err != nil {
		return nil, err
	}
	return pipeline.Compute(ctx, cfg, cats)
}

func initStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func ensureProcessedDir() error {
	if err := os.MkdirAll(cfg.Paths.ProcessedDir, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", cfg.Paths.ProcessedDir)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
