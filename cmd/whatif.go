package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/config"
	"github.com/libraryreach/reach-cli/internal/summary"
)

var whatifCmd = &cobra.Command{
	Use:   "whatif",
	Short: "Compare a scenario run against the stored baseline",
	Long:  "Recomputes the engine under the active --scenario overlay and prints per-metric deltas against the most recent stored baseline run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if scenario == config.BaselineScenario {
			return eris.New("whatif needs --scenario naming a non-baseline overlay")
		}

		out, err := loadAndCompute(ctx)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		baseRun, err := st.LatestRun(ctx, config.BaselineScenario)
		if err != nil {
			return err
		}
		if baseRun == nil {
			return eris.New("no stored baseline run; execute `reach run` first")
		}
		byCity, err := st.CitySummaries(ctx, baseRun.ID)
		if err != nil {
			return err
		}
		baseline := summary.Aggregate(byCity, out.Cities, cfg.Planning.Outreach.TopNPerCity)

		delta := summary.SummarizeDelta(baseline, out.Overall)
		zap.L().Info("scenario compared against baseline",
			zap.String("scenario", scenario),
			zap.String("baseline_run_id", baseRun.ID),
			zap.Strings("cities", out.Cities),
		)
		return printJSON(struct {
			Scenario string        `json:"scenario"`
			Baseline string        `json:"baseline_run_id"`
			Delta    summary.Delta `json:"delta"`
		}{scenario, baseRun.ID, delta})
	},
}

func init() {
	rootCmd.AddCommand(whatifCmd)
}
