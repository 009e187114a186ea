package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/libraryreach/reach-cli/internal/summary"
)

var (
	summaryCities []string
	summaryTopN   int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate cached per-city summaries from the latest stored run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.LatestRun(ctx, scenario)
		if err != nil {
			return err
		}
		if run == nil {
			return eris.Errorf("no stored run for scenario %q; execute `reach run` first", scenario)
		}

		byCity, err := st.CitySummaries(ctx, run.ID)
		if err != nil {
			return err
		}

		cities := summaryCities
		if len(cities) == 0 {
			cities = run.Cities
		}

		zap.L().Info("aggregating stored summaries",
			zap.String("run_id", run.ID),
			zap.String("scenario", run.Scenario),
			zap.Strings("cities", cities),
		)
		return printJSON(summary.Aggregate(byCity, cities, summaryTopN))
	},
}

func init() {
	summaryCmd.Flags().StringSliceVar(&summaryCities, "cities", nil, "cities to include (default: all cities of the run)")
	summaryCmd.Flags().IntVar(&summaryTopN, "top-n", 5, "outreach recommendations to keep in the rollup")
	rootCmd.AddCommand(summaryCmd)
}
