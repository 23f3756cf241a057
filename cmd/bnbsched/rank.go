package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"bnbsched/cmd/common"
	"bnbsched/comm"
	"bnbsched/instance"
	"bnbsched/worker"
)

func rankCmd() *cobra.Command {
	var (
		configPath string
		peers      []string
		id         int
	)
	cmd := &cobra.Command{
		Use:   "rank [instance]",
		Short: "Run one rank of a multi-process search over gRPC",
		Long: `Run one rank of a multi-process search. Every rank is started with the same
cluster topology and its own --id. Rank 0 reads the instance file, shares it
with the others and writes the result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadTopology(configPath, peers)
			if err != nil {
				return err
			}
			if id < 0 || id >= len(config.Ranks) {
				return fmt.Errorf("rank id %d out of range 0..%d", id, len(config.Ranks)-1)
			}

			var tasks instance.TaskList
			if id == 0 {
				if len(args) != 1 {
					return errors.New("rank 0 needs an instance file")
				}
				if tasks, err = instance.Load(args[0]); err != nil {
					return err
				}
			}

			reg := prometheus.NewRegistry()
			metricsAddr := flagMetricsAddr
			if metricsAddr == "" && config.MetricsPort > 0 {
				metricsAddr = fmt.Sprintf(":%d", config.MetricsPort+id)
			}
			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, reg)
				defer srv.Close()
			}

			me := config.Ranks[id]
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", me.Port))
			if err != nil {
				return fmt.Errorf("listen on port %d: %w", me.Port, err)
			}
			glog.Infof("[%v] listening on port %v, %v ranks in cluster", id, me.Port, len(config.Ranks))

			tr := comm.NewGRPCTransport(id, lis, common.MakeClientEnds(config.Ranks))
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			res, err := worker.Solve(ctx, tr, tasks, searchConfig(), worker.NewMetrics(reg, id))
			if cerr := tr.Close(); cerr != nil {
				glog.Warningf("[%v] close transport: %v", id, cerr)
			}
			if err != nil {
				return err
			}
			if id != 0 {
				return nil
			}
			if err := writeResult(flagOutput, res); err != nil {
				return err
			}
			printSummary(os.Stderr, res, len(config.Ranks), time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Cluster topology file (YAML)")
	cmd.Flags().StringSliceVar(&peers, "peers", nil, "Comma-separated host:port of every rank, in rank order")
	cmd.Flags().IntVarP(&id, "id", "i", -1, "Rank of this process")
	cmd.MarkFlagsMutuallyExclusive("config", "peers")
	cmd.MarkFlagsOneRequired("config", "peers")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func loadTopology(configPath string, peers []string) (common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.ConfigFromPeers(peers)
}
