package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"bnbsched/cluster"
	"bnbsched/instance"
)

func localCmd() *cobra.Command {
	var ranks int
	cmd := &cobra.Command{
		Use:   "local <instance>",
		Short: "Run every rank inside this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := instance.Load(args[0])
			if err != nil {
				return err
			}

			var reg prometheus.Registerer
			if flagMetricsAddr != "" {
				r := prometheus.NewRegistry()
				srv := serveMetrics(flagMetricsAddr, r)
				defer srv.Close()
				reg = r
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			res, err := cluster.RunLocal(ctx, tasks, ranks, searchConfig(), reg)
			if err != nil {
				return err
			}
			if err := writeResult(flagOutput, res); err != nil {
				return err
			}
			printSummary(os.Stderr, res, ranks, time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVarP(&ranks, "ranks", "n", runtime.NumCPU(), "Number of ranks")
	return cmd
}
