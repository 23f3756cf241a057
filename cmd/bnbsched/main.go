package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"bnbsched/worker"
)

var (
	flagPrefixPruning bool
	flagSeed          int64
	flagBound         int
	flagOutput        string
	flagMetricsAddr   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bnbsched",
		Short: "Distributed branch-and-bound for single-machine scheduling",
		Long: `bnbsched finds a minimum-makespan order for tasks with release times and
deadlines on one machine. The search tree is split across ranks that steal
work from each other and share the best bound found so far.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&flagPrefixPruning, "prefix-pruning", true, "Discard queued alternatives once a prefix waits for the earliest release")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Seed for picking steal victims (0 = time based)")
	rootCmd.PersistentFlags().IntVar(&flagBound, "bound", 0, "Initial upper bound on the makespan (0 = none)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Write start times here instead of stdout")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	// glog registers -v, -logtostderr and friends on the standard flag set
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(rankCmd())
	rootCmd.AddCommand(localCmd())

	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func searchConfig() worker.Config {
	return worker.Config{
		PrefixPruning: flagPrefixPruning,
		InitialBound:  flagBound,
		Seed:          flagSeed,
	}
}
